// Package matching scores and ranks media outlets for a press pitch.
package matching

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/ai"
	"github.com/spigell/outlet-matcher/internal/feedback"
	"github.com/spigell/outlet-matcher/internal/filtering"
	"github.com/spigell/outlet-matcher/internal/logger"
	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/taxonomy"
	"github.com/spigell/outlet-matcher/internal/textutil"
	"github.com/spigell/outlet-matcher/internal/utils"
)

const (
	DefaultLimit        = 20
	DefaultWorkers      = 4
	DefaultFetchTimeout = 10 * time.Second
	// feedbackFlagThreshold is the field score above which a field is
	// credited in a feedback record.
	feedbackFlagThreshold = 0.3
	maxLogLength          = 80
)

var (
	ErrUnknownOutlet = errors.New("unknown outlet")
	ErrReadOnly      = errors.New("catalog does not accept writes")
)

// Catalog supplies the outlet catalog, the feedback log and recent articles.
type Catalog interface {
	Outlets(ctx context.Context) (*outlet.Outlets, error)
	Feedback(ctx context.Context) ([]feedback.Record, error)
	Articles(ctx context.Context) (map[string][]outlet.Article, error)
}

// FeedbackWriter persists feedback records.
type FeedbackWriter interface {
	SaveFeedback(ctx context.Context, rec *feedback.Record) error
}

// ArticleWriter persists the recent articles of an outlet.
type ArticleWriter interface {
	ReplaceArticles(ctx context.Context, outletID string, articles []outlet.Article) error
}

// Options configure a Matcher. Zero values select the defaults.
type Options struct {
	Logger   *zap.Logger
	Taxonomy *taxonomy.Taxonomy
	// Semantic overrides the similarity backend. When nil, a TF-IDF backend is
	// built from the catalog unless DisableSemantic is set.
	Semantic        ai.Semantic
	DisableSemantic bool
	Workers         int
	FetchTimeout    time.Duration
	// Weights are manual overrides applied on top of the defaults.
	Weights map[string]float64
	Filter  filtering.Config
}

// warmer is implemented by backends that can precompute texts in bulk.
type warmer interface {
	Warm(ctx context.Context, texts []string) error
}

// Matcher is safe for concurrent use. Weights and articles are immutable
// snapshots swapped atomically.
type Matcher struct {
	catalog      Catalog
	tax          *taxonomy.Taxonomy
	detector     *Detector
	classifier   *Classifier
	semantic     ai.Semantic
	logger       *zap.Logger
	workers      int
	fetchTimeout time.Duration
	filter       filtering.Config

	// sections is the set of section names known at initialization.
	sections map[string]bool

	profilesMu sync.RWMutex
	profiles   map[string]*profile

	weights atomic.Pointer[Weights]
	// baseMu guards base, the weights recalibration starts from.
	baseMu sync.Mutex
	base   Weights

	articlesMu sync.Mutex
	articles   atomic.Pointer[map[string][]outlet.Article]
}

// New loads the catalog, feedback and articles once, derives outlet profiles
// and calibrates the weights. Fetch failures degrade to empty data.
func New(ctx context.Context, catalog Catalog, opts Options) (*Matcher, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}

	tax := opts.Taxonomy
	if tax == nil {
		tax = taxonomy.Default()
	}

	m := &Matcher{
		catalog:      catalog,
		tax:          tax,
		detector:     NewDetector(tax),
		classifier:   NewClassifier(tax),
		logger:       logger.WithFields(opts.Logger),
		workers:      opts.Workers,
		fetchTimeout: opts.FetchTimeout,
		filter:       opts.Filter,
		sections:     make(map[string]bool),
		profiles:     make(map[string]*profile),
	}
	if m.workers <= 0 {
		m.workers = DefaultWorkers
	}
	if m.fetchTimeout <= 0 {
		m.fetchTimeout = DefaultFetchTimeout
	}

	known := filtering.StepNames()
	for _, name := range m.filter.Disabled {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("unknown filter %q (known filters: %s)", name, strings.Join(known, ", "))
		}
	}
	steps := filtering.Steps(&m.filter)
	for _, step := range steps {
		if err := step.Validate(&m.filter); err != nil {
			return nil, fmt.Errorf("filter %s: %w", step.Name(), err)
		}
	}
	for _, status := range filtering.Describe(steps) {
		m.logger.Debug("pre-filter step",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	base, err := DefaultWeights().With(opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("weight overrides: %w", err)
	}
	m.base = base

	outlets := m.fetchOutlets(ctx)
	texts := make([]string, 0, outlets.Len())
	keywords := make([]string, 0, outlets.Len())
	for _, o := range outlets.Items {
		m.profileFor(o)
		if section := textutil.Normalize(o.SectionName); section != "" {
			m.sections[section] = true
		}
		texts = append(texts, o.Keywords, o.Text())
		keywords = append(keywords, o.Keywords)
	}

	switch {
	case opts.Semantic != nil:
		m.semantic = opts.Semantic
	case !opts.DisableSemantic:
		m.semantic = ai.NewTFIDF(texts)
	}
	m.warm(ctx, m.logger, keywords)

	weights := base.Recalibrate(m.fetchFeedback(ctx))
	m.weights.Store(&weights)

	articles := m.fetchArticles(ctx)
	m.articles.Store(&articles)
	m.warm(ctx, m.logger, articleTexts(articles))

	backend := ai.BackendNone
	if m.semantic != nil {
		backend = m.semantic.Name()
	}
	m.logger.Info("matcher initialized",
		zap.Int("outlets", outlets.Len()),
		zap.Int("sections", len(m.sections)),
		zap.String(logger.FieldBackend, backend),
	)

	return m, nil
}

// Taxonomy returns the taxonomy the matcher runs on.
func (m *Matcher) Taxonomy() *taxonomy.Taxonomy { return m.tax }

// Detect returns the specialization of a query.
func (m *Matcher) Detect(q Query) Specialization {
	return m.detector.Detect(q.Abstract, q.Industry)
}

// FindMatches ranks the catalog for the query. It never fails: problems are
// logged and yield an empty list.
func (m *Matcher) FindMatches(ctx context.Context, q Query, limit int) (results []Result) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("find matches failed", zap.String("error", fmt.Sprint(rec)))
			results = []Result{}
		}
	}()

	if limit <= 0 {
		limit = DefaultLimit
	}

	specialty := m.Detect(q)
	log := logger.WithMatchFields(m.logger, specialty.Name, q.Industry)
	log.Debug("matching pitch", zap.String("abstract", utils.TruncateForLog(q.Abstract, maxLogLength)))

	outlets := m.fetchOutlets(ctx)
	filtered, err := filtering.Run(ctx, &m.filter, filtering.Deps{
		Logger:         log,
		Taxonomy:       m.tax,
		Focus:          m.focusOf,
		Specialization: specialty.Name,
	}, filtering.Steps(&m.filter), outlets)
	if err != nil {
		log.Warn("pre-filter failed", zap.Error(err))
		return []Result{}
	}

	r := m.newRequest(q, specialty, m.Weights())
	articles := *m.articles.Load()
	m.warmRequest(ctx, log, r, filtered, articles)
	scored := m.scoreAll(ctx, r, filtered, articles)

	threshold := m.tax.Threshold(specialty.Name)
	results = make([]Result, 0, len(scored))
	var best *Result
	for i := range scored {
		res := scored[i]
		if res.Score >= threshold {
			res.Explanation = m.explain(r, m.newCandidate(res.Outlet, articles), res)
			results = append(results, res)
			continue
		}
		if best == nil || res.Score > best.Score {
			best = &scored[i]
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if len(results) == 0 && best != nil {
		fields := append(logger.ScoreFields(best.Outlet.Name, best.Focus, best.Score),
			zap.Float64("threshold", threshold),
			zap.Float64("base_score", best.Base),
		)
		log.Debug("no outlet cleared the threshold", fields...)
	}
	log.Info("matches found",
		zap.Int("catalog", outlets.Len()),
		zap.Int("candidates", filtered.Len()),
		zap.Int("matches", len(results)),
	)

	return results
}

// Score scores a single outlet without pre-filtering or threshold.
func (m *Matcher) Score(ctx context.Context, o *outlet.Outlet, q Query) Result {
	r := m.newRequest(q, m.Detect(q), m.Weights())
	articles := *m.articles.Load()
	c := m.newCandidate(o, articles)
	res := m.score(ctx, r, c)
	res.Explanation = m.explain(r, c, res)
	return res
}

// warm precomputes texts on backends that support it. Failures are logged and
// scoring falls back to per-pair requests.
func (m *Matcher) warm(ctx context.Context, log *zap.Logger, texts []string) {
	w, ok := m.semantic.(warmer)
	if !ok || len(texts) == 0 {
		return
	}
	if err := w.Warm(ctx, texts); err != nil {
		log.Warn("semantic warm-up failed", zap.String(logger.FieldBackend, m.semantic.Name()), zap.Error(err))
	}
}

// warmRequest warms the abstract together with every text the candidates
// will be compared against, so a request costs at most one backend call.
func (m *Matcher) warmRequest(ctx context.Context, log *zap.Logger, r *request, outlets *outlet.Outlets, articles map[string][]outlet.Article) {
	if r.abstract == "" {
		return
	}
	texts := []string{r.abstract}
	for _, o := range outlets.Items {
		texts = append(texts, o.Keywords)
		for _, a := range articles[o.Key()] {
			texts = append(texts, a.Text())
		}
	}
	m.warm(ctx, log, texts)
}

func articleTexts(articles map[string][]outlet.Article) []string {
	var texts []string
	for _, list := range articles {
		for _, a := range list {
			texts = append(texts, a.Text())
		}
	}
	return texts
}

// scoreAll scores outlets on the worker pool. Results keep catalog order.
func (m *Matcher) scoreAll(ctx context.Context, r *request, outlets *outlet.Outlets, articles map[string][]outlet.Article) []Result {
	results := make([]Result, outlets.Len())
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = m.scoreOne(ctx, r, outlets.Items[i], articles)
			}
		}()
	}

	for i := range outlets.Items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (m *Matcher) scoreOne(ctx context.Context, r *request, o *outlet.Outlet, articles map[string][]outlet.Article) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Warn("outlet scoring failed", zap.String(logger.FieldOutlet, o.Name), zap.String("error", fmt.Sprint(rec)))
			res = Result{Outlet: o, Fields: map[string]float64{}, Confidence: textutil.Percent(0)}
		}
	}()
	return m.score(ctx, r, m.newCandidate(o, articles))
}

// Weights returns the current weight snapshot. Callers must not modify it.
func (m *Matcher) Weights() Weights {
	return *m.weights.Load()
}

// SetWeights applies manual overrides, clamped to [MinWeight, MaxWeight], and
// returns the new snapshot.
func (m *Matcher) SetWeights(overrides map[string]float64) (Weights, error) {
	m.baseMu.Lock()
	defer m.baseMu.Unlock()

	base, err := m.base.With(overrides)
	if err != nil {
		return nil, err
	}
	current, err := m.Weights().With(overrides)
	if err != nil {
		return nil, err
	}

	m.base = base
	m.weights.Store(&current)
	m.logger.Info("weights updated", zap.Any("weights", current))
	return current, nil
}

// Recalibrate rebuilds the weights from the feedback log and swaps them in.
func (m *Matcher) Recalibrate(records []feedback.Record) Weights {
	m.baseMu.Lock()
	defer m.baseMu.Unlock()

	weights := m.base.Recalibrate(records)
	m.weights.Store(&weights)
	m.logger.Debug("weights recalibrated", zap.Int("records", len(records)), zap.Any("weights", weights))
	return weights
}

// FeedbackInput is the outcome of a pitch to one outlet. When Query is set,
// the fields that scored above 0.3 for that outlet are credited; Fields adds
// explicit flags.
type FeedbackInput struct {
	OutletID string
	Success  bool
	Note     string
	Query    *Query
	Fields   map[string]bool
}

// RecordFeedback stores the outcome, reloads the whole feedback log and
// recalibrates the weights.
func (m *Matcher) RecordFeedback(ctx context.Context, in FeedbackInput) (*feedback.Record, error) {
	writer, ok := m.catalog.(FeedbackWriter)
	if !ok {
		return nil, ErrReadOnly
	}
	if strings.TrimSpace(in.OutletID) == "" {
		return nil, errors.New("outlet id is required")
	}

	o := m.fetchOutlets(ctx).FindByID(in.OutletID)
	if o == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownOutlet, in.OutletID)
	}

	rec := &feedback.Record{
		OutletID: o.Key(),
		Success:  in.Success,
		Note:     strings.TrimSpace(in.Note),
		Fields:   make(map[string]bool),
	}

	if in.Query != nil {
		for field, v := range m.Score(ctx, o, *in.Query).Fields {
			rec.Fields[field] = v > feedbackFlagThreshold
		}
	}
	for field, flagged := range in.Fields {
		if !isField(field) {
			return nil, fmt.Errorf("%w %q", ErrUnknownField, field)
		}
		rec.Fields[field] = flagged
	}

	if err := writer.SaveFeedback(ctx, rec); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}

	weights := m.Recalibrate(m.fetchFeedback(ctx))
	m.logger.Info("feedback recorded",
		zap.String(logger.FieldOutlet, rec.OutletID),
		zap.Bool("success", rec.Success),
		zap.Any("weights", weights),
	)
	return rec, nil
}

// UpdateRecentArticles replaces the recent articles of an outlet, persisting
// them when the catalog accepts writes.
func (m *Matcher) UpdateRecentArticles(ctx context.Context, outletID string, articles []outlet.Article) error {
	if strings.TrimSpace(outletID) == "" {
		return errors.New("outlet id is required")
	}
	if writer, ok := m.catalog.(ArticleWriter); ok {
		if err := writer.ReplaceArticles(ctx, outletID, articles); err != nil {
			return fmt.Errorf("replace articles: %w", err)
		}
	}

	m.warm(ctx, m.logger, articleTexts(map[string][]outlet.Article{outletID: articles}))

	m.articlesMu.Lock()
	defer m.articlesMu.Unlock()

	current := *m.articles.Load()
	next := make(map[string][]outlet.Article, len(current)+1)
	for id, list := range current {
		next[id] = list
	}
	if len(articles) == 0 {
		delete(next, outletID)
	} else {
		next[outletID] = append([]outlet.Article(nil), articles...)
	}
	m.articles.Store(&next)

	m.logger.Debug("recent articles updated", zap.String(logger.FieldOutlet, outletID), zap.Int("articles", len(articles)))
	return nil
}

// profileFor returns the cached profile of o, deriving it on first use.
func (m *Matcher) profileFor(o *outlet.Outlet) *profile {
	key := o.Key()

	m.profilesMu.RLock()
	p, ok := m.profiles[key]
	m.profilesMu.RUnlock()
	if ok {
		return p
	}

	focus, _ := m.classifier.Classify(o)
	p = &profile{Profile: outlet.BuildProfile(o, m.tax), focus: focus}
	p.topics = strings.Join(p.Topics, ", ")

	m.profilesMu.Lock()
	defer m.profilesMu.Unlock()
	if existing, ok := m.profiles[key]; ok {
		return existing
	}
	m.profiles[key] = p
	return p
}

func (m *Matcher) focusOf(o *outlet.Outlet) string {
	return m.profileFor(o).focus
}

func (m *Matcher) fetchOutlets(ctx context.Context) *outlet.Outlets {
	ctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	outlets, err := m.catalog.Outlets(ctx)
	if err != nil {
		m.logger.Warn("fetching outlets failed", zap.Error(err))
		return &outlet.Outlets{}
	}
	if outlets == nil {
		return &outlet.Outlets{}
	}
	return outlets
}

func (m *Matcher) fetchFeedback(ctx context.Context) []feedback.Record {
	ctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	records, err := m.catalog.Feedback(ctx)
	if err != nil {
		m.logger.Warn("fetching feedback failed", zap.Error(err))
		return nil
	}
	return records
}

func (m *Matcher) fetchArticles(ctx context.Context) map[string][]outlet.Article {
	ctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	articles, err := m.catalog.Articles(ctx)
	if err != nil {
		m.logger.Warn("fetching articles failed", zap.Error(err))
		return map[string][]outlet.Article{}
	}
	if articles == nil {
		return map[string][]outlet.Article{}
	}
	return articles
}

func (m *Matcher) similarity(ctx context.Context, a, b string) float64 {
	if m.semantic == nil {
		return textutil.Jaccard(a, b)
	}
	sim, err := m.semantic.Similarity(ctx, a, b)
	if err != nil {
		if !errors.Is(err, ai.ErrEmptyText) {
			m.logger.Debug("semantic similarity failed, using word overlap",
				zap.String(logger.FieldBackend, m.semantic.Name()), zap.Error(err))
		}
		return textutil.Jaccard(a, b)
	}
	return clamp01(sim)
}
