package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/policywatch/policywatch-backend/internal/chunk"
	"github.com/policywatch/policywatch-backend/internal/common"
	"github.com/policywatch/policywatch-backend/internal/domain"
	"github.com/policywatch/policywatch-backend/internal/llm"
	"github.com/policywatch/policywatch-backend/internal/repository"
	"github.com/policywatch/policywatch-backend/internal/scoring"
	"github.com/policywatch/policywatch-backend/internal/timing"
	"github.com/policywatch/policywatch-backend/pkg/logger"
	"github.com/policywatch/policywatch-backend/pkg/metrics"
)

// AnalysisOptions tunes one orchestrator instance.
type AnalysisOptions struct {
	Model         string
	Temperature   float64
	MaxChunkChars int
	MaxFlagsTotal int
}

// AnalysisService runs the full-document analysis pipeline: chunk the
// version text, extract flags per chunk, aggregate, score, generate the
// executive summary and FAQ, and persist one AnalysisResult per run.
// Re-analysis creates a fresh result and supersedes the prior current one.
type AnalysisService struct {
	versionRepo  repository.VersionRepository
	analysisRepo repository.AnalysisRepository
	cmpRepo      repository.ComparisonRepository
	client       *llm.Client
	scoringCfg   *scoring.Config
	opts         AnalysisOptions
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(
	versionRepo repository.VersionRepository,
	analysisRepo repository.AnalysisRepository,
	cmpRepo repository.ComparisonRepository,
	client *llm.Client,
	scoringCfg *scoring.Config,
	opts AnalysisOptions,
) *AnalysisService {
	if opts.MaxChunkChars == 0 {
		opts.MaxChunkChars = chunk.DefaultMaxChars
	}
	if opts.MaxFlagsTotal == 0 {
		opts.MaxFlagsTotal = 60
	}
	return &AnalysisService{
		versionRepo:  versionRepo,
		analysisRepo: analysisRepo,
		cmpRepo:      cmpRepo,
		client:       client,
		scoringCfg:   scoringCfg,
		opts:         opts,
	}
}

// chunkAnalysis mirrors the JSON shape the chunk prompt requests.
type chunkAnalysis struct {
	Summary string `json:"summary"`
	Flags   struct {
		Red    []flagPayload `json:"red"`
		Yellow []flagPayload `json:"yellow"`
		Green  []flagPayload `json:"green"`
	} `json:"flags"`
}

type flagPayload struct {
	Type             string `json:"type"`
	Description      string `json:"description"`
	SectionReference string `json:"section_reference"`
	Severity         int    `json:"severity"`
}

type summaryAnalysis struct {
	Summary   string `json:"summary"`
	Concerns  string `json:"concerns"`
	Positives string `json:"positives"`
}

type faqAnalysis struct {
	FAQ []domain.FAQEntry `json:"faq"`
}

// runUsage accumulates token and cost totals across a run's calls.
type runUsage struct {
	inputTokens  int
	outputTokens int
	costUSD      float64
	repaired     bool
}

func (u *runUsage) add(c *llm.Client, model string, resp *llm.Response) {
	u.inputTokens += resp.InputTokens
	u.outputTokens += resp.OutputTokens
	u.costUSD += c.Cost(model, resp.InputTokens, resp.OutputTokens)
	metrics.TokensUsed.WithLabelValues("input").Add(float64(resp.InputTokens))
	metrics.TokensUsed.WithLabelValues("output").Add(float64(resp.OutputTokens))
}

// Analyze runs the full pipeline for one version. It records a running
// result row first so an operator can see in-flight work, then either
// completes it (superseding the prior current result) or marks it failed.
// Per-chunk model failures degrade that chunk to an empty placeholder;
// the run only fails outright when every chunk failed or a later
// persistence step errors.
func (s *AnalysisService) Analyze(ctx context.Context, versionID uint64) (*domain.AnalysisResult, error) {
	version, err := s.versionRepo.FindByID(versionID)
	if err != nil {
		return nil, fmt.Errorf("load version %d: %w", versionID, err)
	}
	text := strings.TrimSpace(version.PlainContent)
	if text == "" {
		return nil, common.ErrEmptyContent
	}

	chunks := chunk.Split(text, s.opts.MaxChunkChars)
	runID := uuid.New().String()
	started := time.Now()

	result := &domain.AnalysisResult{
		VersionID:    version.ID,
		DocumentID:   version.DocumentID,
		AnalysisType: domain.AnalysisTypeDocument,
		RunID:        runID,
		Model:        s.opts.Model,
		ChunkCount:   len(chunks),
		Status:       domain.AnalysisStatusRunning,
		StartedAt:    started,
	}
	if err := s.analysisRepo.Create(result); err != nil {
		return nil, fmt.Errorf("create analysis run: %w", err)
	}

	log := logger.WithRunID(runID)
	log.Info().
		Uint64("version_id", version.ID).
		Uint64("document_id", version.DocumentID).
		Int("chunks", len(chunks)).
		Msg("analysis run started")

	if err := s.runPipeline(ctx, version, chunks, result, log); err != nil {
		if ferr := s.analysisRepo.MarkFailed(result.ID, err.Error()); ferr != nil {
			log.Error().Err(ferr).Msg("failed to mark analysis failed")
		}
		metrics.AnalysesTotal.WithLabelValues(domain.AnalysisTypeDocument, "failed").Inc()
		return nil, err
	}

	if err := s.analysisRepo.CompleteAndMarkCurrent(result); err != nil {
		return nil, fmt.Errorf("persist analysis result: %w", err)
	}
	metrics.AnalysesTotal.WithLabelValues(domain.AnalysisTypeDocument, "completed").Inc()
	metrics.AnalysisDuration.WithLabelValues(domain.AnalysisTypeDocument).
		Observe(time.Since(started).Seconds())
	metrics.CostUSD.Add(result.CostUSD)

	log.Info().
		Int("score", result.Score).
		Str("grade", result.Grade).
		Float64("cost_usd", result.CostUSD).
		Dur("elapsed", time.Since(started)).
		Msg("analysis run completed")
	return result, nil
}

func (s *AnalysisService) runPipeline(
	ctx context.Context,
	version *domain.DocumentVersion,
	chunks []string,
	result *domain.AnalysisResult,
	log zerolog.Logger,
) error {
	usage := &runUsage{}

	var allFlags []domain.Flag
	var summaries []string
	failed := 0

	for i, chunkText := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		analysis, err := s.analyzeChunk(ctx, chunkText, i, len(chunks), usage)
		if err != nil {
			// A dead chunk degrades to a placeholder; the rest of the
			// document still gets analyzed.
			failed++
			log.Warn().Err(err).Int("chunk", i+1).Msg("chunk analysis degraded")
			summaries = append(summaries, fmt.Sprintf("(section %d could not be analyzed)", i+1))
			continue
		}
		metrics.ChunksAnalyzed.Inc()

		summaries = append(summaries, analysis.Summary)
		allFlags = append(allFlags, collectFlags(analysis)...)
	}

	if failed == len(chunks) {
		return fmt.Errorf("%w: all %d chunks failed", common.ErrAnalysisFailed, len(chunks))
	}

	allFlags = domain.DeduplicateFlags(allFlags)
	if len(allFlags) > s.opts.MaxFlagsTotal {
		allFlags = allFlags[:s.opts.MaxFlagsTotal]
	}

	scored := scoring.Score(allFlags, s.scoringCfg)

	summary := s.generateSummary(ctx, summaries, allFlags, usage, log)
	faq := s.generateFAQ(ctx, allFlags, usage, log)

	flagsJSON, err := json.Marshal(allFlags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}
	dimJSON, err := json.Marshal(scored.DimensionScores)
	if err != nil {
		return fmt.Errorf("marshal dimension scores: %w", err)
	}
	faqJSON, err := json.Marshal(faq)
	if err != nil {
		return fmt.Errorf("marshal faq: %w", err)
	}

	result.Score = scored.TotalScore
	result.Grade = scored.Grade
	result.Flags = string(flagsJSON)
	result.DimensionScores = string(dimJSON)
	result.Summary = summary.Summary
	result.Concerns = summary.Concerns
	result.Positives = summary.Positives
	result.FAQ = string(faqJSON)
	result.InputTokens = usage.inputTokens
	result.OutputTokens = usage.outputTokens
	result.CostUSD = usage.costUSD
	result.Repaired = usage.repaired
	return nil
}

func (s *AnalysisService) analyzeChunk(ctx context.Context, chunkText string, index, total int, usage *runUsage) (*chunkAnalysis, error) {
	resp, err := s.chat(ctx, buildChunkPrompt(chunkText, index, total), usage)
	if err != nil {
		return nil, err
	}

	var analysis chunkAnalysis
	decode, err := llm.DecodeJSON(resp.Content, &analysis)
	if err != nil {
		return nil, fmt.Errorf("chunk %d response unparseable: %w", index+1, err)
	}
	if decode.Repaired {
		usage.repaired = true
		metrics.JSONRepairsTotal.Inc()
	}
	return &analysis, nil
}

// generateSummary issues the executive-summary call. On failure it falls
// back to joining the first chunk summaries rather than failing the run.
func (s *AnalysisService) generateSummary(ctx context.Context, chunkSummaries []string, flags []domain.Flag, usage *runUsage, log zerolog.Logger) summaryAnalysis {
	counts := map[string]int{}
	for _, f := range flags {
		counts[f.Color]++
	}

	resp, err := s.chat(ctx, buildSummaryPrompt(chunkSummaries, counts), usage)
	if err == nil {
		var summary summaryAnalysis
		decode, derr := llm.DecodeJSON(resp.Content, &summary)
		if derr == nil {
			if decode.Repaired {
				usage.repaired = true
				metrics.JSONRepairsTotal.Inc()
			}
			return summary
		}
		err = derr
	}

	log.Warn().Err(err).Msg("summary generation degraded to chunk summaries")
	n := len(chunkSummaries)
	if n > 3 {
		n = 3
	}
	return summaryAnalysis{Summary: strings.Join(chunkSummaries[:n], " ")}
}

// generateFAQ issues the FAQ call. Failure yields an empty FAQ; the
// feature is additive and never blocks a result.
func (s *AnalysisService) generateFAQ(ctx context.Context, flags []domain.Flag, usage *runUsage, log zerolog.Logger) []domain.FAQEntry {
	if len(flags) == 0 {
		return []domain.FAQEntry{}
	}
	types := make([]string, 0, len(flags))
	for _, f := range flags {
		types = append(types, f.Type)
	}

	resp, err := s.chat(ctx, buildFAQPrompt(types), usage)
	if err == nil {
		var parsed faqAnalysis
		decode, derr := llm.DecodeJSON(resp.Content, &parsed)
		if derr == nil {
			if decode.Repaired {
				usage.repaired = true
				metrics.JSONRepairsTotal.Inc()
			}
			return parsed.FAQ
		}
		err = derr
	}

	log.Warn().Err(err).Msg("faq generation skipped")
	return []domain.FAQEntry{}
}

func (s *AnalysisService) chat(ctx context.Context, prompt string, usage *runUsage) (*llm.Response, error) {
	resp, err := s.client.Chat(ctx, llm.Request{
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		Messages: []llm.Message{
			{Role: "system", Content: analystSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}
	usage.add(s.client, s.opts.Model, resp)
	return resp, nil
}

func collectFlags(analysis *chunkAnalysis) []domain.Flag {
	var out []domain.Flag
	appendColor := func(payloads []flagPayload, color string) {
		for _, p := range payloads {
			if p.Type == "" {
				continue
			}
			severity := p.Severity
			if severity < 1 {
				severity = 1
			}
			if severity > 10 {
				severity = 10
			}
			out = append(out, domain.Flag{
				Type:             p.Type,
				Description:      p.Description,
				SectionReference: p.SectionReference,
				Severity:         severity,
				Color:            color,
			})
		}
	}
	appendColor(analysis.Flags.Red, domain.FlagRed)
	appendColor(analysis.Flags.Yellow, domain.FlagYellow)
	appendColor(analysis.Flags.Green, domain.FlagGreen)
	return out
}

// diffAnalysis mirrors the JSON shape the diff prompt requests.
type diffAnalysis struct {
	Summary     string `json:"summary"`
	ImpactDelta int    `json:"impact_delta"`
	Flags       []struct {
		Type        string `json:"type"`
		Description string `json:"description"`
		Severity    int    `json:"severity"`
		Color       string `json:"color"`
	} `json:"flags"`
}

// AnalyzeComparison annotates one version comparison: a single model call
// over the diff text plus the quick timing verdict for the new version's
// effective timestamp. The repository enforces that annotation happens at
// most once per comparison.
func (s *AnalysisService) AnalyzeComparison(ctx context.Context, comparisonID uint64) error {
	cmp, err := s.cmpRepo.FindByID(comparisonID)
	if err != nil {
		return fmt.Errorf("load comparison %d: %w", comparisonID, err)
	}
	if cmp.IsAnalyzed {
		return common.ErrAlreadyAnalyzed
	}
	newVersion, err := s.versionRepo.FindByID(cmp.NewVersionID)
	if err != nil {
		return fmt.Errorf("load version %d: %w", cmp.NewVersionID, err)
	}

	diffText, err := renderDiffText(cmp.DiffBlocks)
	if err != nil {
		return fmt.Errorf("decode diff blocks: %w", err)
	}

	usage := &runUsage{}
	started := time.Now()
	log := logger.WithDocumentID(cmp.DocumentID)

	resp, err := s.chat(ctx, buildDiffPrompt(diffText), usage)
	if err != nil {
		s.recordComparisonFailure(cmp.ID, err, log)
		return err
	}
	var analysis diffAnalysis
	decode, err := llm.DecodeJSON(resp.Content, &analysis)
	if err != nil {
		err = fmt.Errorf("diff response unparseable: %w", err)
		s.recordComparisonFailure(cmp.ID, err, log)
		return err
	}
	if decode.Repaired {
		metrics.JSONRepairsTotal.Inc()
	}

	verdict := timing.QuickVerdict(newVersion.EffectiveTimestamp(), analysis.ImpactDelta)

	flagsJSON, err := json.Marshal(analysis.Flags)
	if err != nil {
		return fmt.Errorf("marshal change flags: %w", err)
	}

	err = s.cmpRepo.SaveAnalysis(cmp.ID, repository.AnalysisFields{
		ChangeSummary:    analysis.Summary,
		ImpactDelta:      analysis.ImpactDelta,
		ChangeFlags:      string(flagsJSON),
		SuspiciousTiming: verdict.Suspicious,
		TimingScore:      verdict.Score,
	})
	if err != nil {
		return fmt.Errorf("save comparison analysis: %w", err)
	}

	metrics.AnalysesTotal.WithLabelValues(domain.AnalysisTypeDiff, "completed").Inc()
	metrics.AnalysisDuration.WithLabelValues(domain.AnalysisTypeDiff).
		Observe(time.Since(started).Seconds())
	metrics.CostUSD.Add(usage.costUSD)

	log.Info().
		Uint64("comparison_id", cmp.ID).
		Int("impact_delta", analysis.ImpactDelta).
		Bool("suspicious_timing", verdict.Suspicious).
		Msg("comparison analyzed")
	return nil
}

func (s *AnalysisService) recordComparisonFailure(id uint64, cause error, log zerolog.Logger) {
	metrics.AnalysesTotal.WithLabelValues(domain.AnalysisTypeDiff, "failed").Inc()
	if err := s.cmpRepo.MarkFailed(id, cause.Error()); err != nil {
		log.Error().Err(err).Uint64("comparison_id", id).Msg("failed to record comparison error")
	}
}

// renderDiffText turns stored diff blocks back into unified +/- lines for
// the model prompt.
func renderDiffText(blocksJSON string) (string, error) {
	if strings.TrimSpace(blocksJSON) == "" {
		return "", nil
	}
	var blocks []struct {
		Type  string   `json:"type"`
		Lines []string `json:"lines"`
	}
	if err := json.Unmarshal([]byte(blocksJSON), &blocks); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range blocks {
		prefix := "  "
		switch block.Type {
		case "added":
			prefix = "+ "
		case "removed":
			prefix = "- "
		case "collapsed":
			b.WriteString("  ...\n")
			continue
		}
		for _, line := range block.Lines {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// CurrentForVersion returns the current completed analysis of a version.
func (s *AnalysisService) CurrentForVersion(versionID uint64) (*domain.AnalysisResult, error) {
	res, err := s.analysisRepo.FindCurrent(versionID, domain.AnalysisTypeDocument)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrAnalysisNotFound
		}
		return nil, err
	}
	return res, nil
}

// History returns every analysis run recorded for a version.
func (s *AnalysisService) History(versionID uint64) ([]*domain.AnalysisResult, error) {
	return s.analysisRepo.FindByVersion(versionID)
}

// SweepUnanalyzedComparisons annotates up to limit pending comparisons.
// Called by the worker after each job so that comparisons whose enqueue
// was lost still get analyzed.
func (s *AnalysisService) SweepUnanalyzedComparisons(ctx context.Context, limit int) {
	pending, err := s.cmpRepo.FindUnanalyzed(limit)
	if err != nil {
		logger.GetLogger().Error().Err(err).Msg("sweep query failed")
		return
	}
	for _, cmp := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := s.AnalyzeComparison(ctx, cmp.ID); err != nil {
			logger.GetLogger().Warn().Err(err).
				Uint64("comparison_id", cmp.ID).
				Msg("comparison sweep item failed")
		}
	}
}
