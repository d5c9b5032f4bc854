package matproj

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/matproj/internal/db"
	dbRedis "github.com/kailas-cloud/matproj/internal/db/redis"
	"github.com/kailas-cloud/matproj/internal/document"
	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/metrics"
	"github.com/kailas-cloud/matproj/internal/query"
	"github.com/kailas-cloud/matproj/internal/repository/respcache"
	"github.com/kailas-cloud/matproj/internal/transport/rest"
	"github.com/kailas-cloud/matproj/internal/usecase/health"
	"github.com/kailas-cloud/matproj/internal/version"
)

const defaultReadinessTimeout = 10 * time.Second

// Heartbeat is the API status answer.
type Heartbeat = rest.Heartbeat

// Client is the matproj SDK entry point. All Resters share one HTTP session.
type Client struct {
	session *rest.Session
	store   db.Store // owned cache store, nil when none or caller-provided
	cache   CacheStore
	core    *core

	materials           *MaterialsRester
	thermo              *ThermoRester
	summary             *SummaryRester
	electronicStructure *ElectronicStructureRester
	synthesis           *SynthesisRester
	tasks               *TasksRester
	electrodes          *ElectrodesRester
	magnetism           *MagnetismRester
	dielectric          *DielectricRester
	piezo               *PiezoRester
	elasticity          *ElasticityRester
	surfaceProperties   *SurfacePropertiesRester
	similarity          *SimilarityRester
	xas                 *XASRester
	doi                 *DOIRester
	eos                 *EOSRester
	fermi               *FermiRester
	grainBoundaries     *GrainBoundariesRester
	molecules           *MoleculesRester
	substrates          *SubstratesRester
	robocrys            *RobocrysRester
	oxidationStates     *OxidationStatesRester

	byName map[string]GenericRester
}

// New creates a Client. The provided context is used for the cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("matproj: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg, cfg.tracerProvider)
	if err != nil {
		return nil, fmt.Errorf("matproj: %w", err)
	}

	var httpMetrics *metrics.HTTPClient
	if cfg.metricsReg != nil {
		if httpMetrics, err = metrics.NewHTTPClient(cfg.metricsReg); err != nil {
			return nil, fmt.Errorf("matproj: %w", err)
		}
	}

	userAgent := ""
	if cfg.includeUserAgent {
		userAgent = version.UserAgent()
	}
	session, err := rest.NewSession(rest.Config{
		Endpoint:       cfg.endpoint,
		APIKey:         cfg.apiKey,
		UserAgent:      userAgent,
		Timeout:        cfg.timeout,
		MaxRetries:     cfg.maxRetries,
		HTTPClient:     cfg.httpClient,
		TracerProvider: cfg.tracerProvider,
		Metrics:        httpMetrics,
		Logger:         cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("matproj: %w", err)
	}

	var fetcher query.Fetcher = session
	owned, cacheStore, err := createCacheStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cacheStore != nil {
		cacheTotal, err := newCacheTotal(cfg)
		if err != nil {
			if owned != nil {
				owned.Close()
			}
			return nil, err
		}
		fetcher = respcache.New(session, session.Endpoint(), cacheStore, cfg.cacheTTL, cacheTotal, cfg.logger)
	}

	return wireClient(session, fetcher, owned, cacheStore, cfg, obs), nil
}

func (cfg *clientConfig) validate() error {
	var result *multierror.Error
	if cfg.apiKey == "" {
		result = multierror.Append(result, fmt.Errorf(
			"%w: API key required (use WithAPIKey or set %s)", domain.ErrConfig, EnvAPIKey))
	}
	if cfg.chunkSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w: chunk size must be positive", domain.ErrConfig))
	}
	if cfg.parallelRequests <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w: parallel requests must be positive", domain.ErrConfig))
	}
	if cfg.maxURLLength <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w: max URL length must be positive", domain.ErrConfig))
	}
	if cfg.redisAddr != "" && cfg.cacheStore != nil {
		result = multierror.Append(result, fmt.Errorf(
			"%w: WithRedisCache and WithCacheStore are mutually exclusive", domain.ErrConfig))
	}
	return result.ErrorOrNil()
}

func createCacheStore(ctx context.Context, cfg *clientConfig) (db.Store, CacheStore, error) {
	if cfg.cacheStore != nil {
		return nil, cfg.cacheStore, nil
	}
	if cfg.redisAddr == "" {
		return nil, nil, nil
	}
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    []string{cfg.redisAddr},
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("matproj: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("matproj: cache not ready: %w", err)
	}
	return s, s, nil
}

func newCacheTotal(cfg *clientConfig) (*prometheus.CounterVec, error) {
	if cfg.metricsReg == nil {
		return nil, nil
	}
	c, err := metrics.NewCacheTotal(cfg.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("matproj: %w", err)
	}
	return c, nil
}

func wireClient(
	session *rest.Session, fetcher query.Fetcher, owned db.Store, cache CacheStore, cfg *clientConfig, obs *observer,
) *Client {
	base := &core{
		fetcher: fetcher,
		paginator: query.NewPaginator(fetcher, query.Config{
			BaseURL:          session.Endpoint(),
			ParallelRequests: cfg.parallelRequests,
			MaxURLLength:     cfg.maxURLLength,
		}),
		decoder:     document.NewDecoder(cfg.registry, cfg.logger),
		obs:         obs,
		montyDecode: cfg.montyDecode,
		chunkSize:   cfg.chunkSize,
	}

	c := &Client{
		session: session,
		store:   owned,
		cache:   cache,
		core:    base,

		materials:           &MaterialsRester{newRester[MaterialsDoc](base, materialsRoute)},
		thermo:              &ThermoRester{newRester[ThermoDoc](base, thermoRoute)},
		summary:             &SummaryRester{newRester[SummaryDoc](base, summaryRoute)},
		electronicStructure: &ElectronicStructureRester{newRester[ElectronicStructureDoc](base, electronicStructureRoute)},
		synthesis:           &SynthesisRester{newRester[SynthesisRecipe](base, synthesisRoute)},
		tasks:               &TasksRester{newRester[TaskDoc](base, tasksRoute)},
		electrodes:          &ElectrodesRester{newRester[InsertionElectrodeDoc](base, electrodesRoute)},
		magnetism:           &MagnetismRester{newRester[MagnetismDoc](base, magnetismRoute)},
		dielectric:          &DielectricRester{newRester[DielectricDoc](base, dielectricRoute)},
		piezo:               &PiezoRester{newRester[PiezoelectricDoc](base, piezoRoute)},
		elasticity:          &ElasticityRester{newRester[ElasticityDoc](base, elasticityRoute)},
		surfaceProperties:   &SurfacePropertiesRester{newRester[SurfacePropDoc](base, surfacePropertiesRoute)},
		similarity:          &SimilarityRester{newRester[SimilarityDoc](base, similarityRoute)},
		xas:                 &XASRester{newRester[XASDoc](base, xasRoute)},
		doi:                 &DOIRester{newRester[DOIDoc](base, doiRoute)},
		eos:                 &EOSRester{newRester[EOSDoc](base, eosRoute)},
		fermi:               &FermiRester{newRester[FermiDoc](base, fermiRoute)},
		grainBoundaries:     &GrainBoundariesRester{newRester[GrainBoundaryDoc](base, grainBoundariesRoute)},
		molecules:           &MoleculesRester{newRester[MoleculeDoc](base, moleculesRoute)},
		substrates:          &SubstratesRester{newRester[SubstratesDoc](base, substratesRoute)},
		robocrys:            &RobocrysRester{newRester[RobocrystallogapherDoc](base, robocrysRoute)},
		oxidationStates:     &OxidationStatesRester{newRester[OxidationStateDoc](base, oxidationStatesRoute)},
	}

	c.byName = map[string]GenericRester{
		"materials":            c.materials,
		"thermo":               c.thermo,
		"summary":              c.summary,
		"electronic_structure": c.electronicStructure,
		"synthesis":            c.synthesis,
		"tasks":                c.tasks,
		"electrodes":           c.electrodes,
		"magnetism":            c.magnetism,
		"dielectric":           c.dielectric,
		"piezo":                c.piezo,
		"elasticity":           c.elasticity,
		"surface_properties":   c.surfaceProperties,
		"similarity":           c.similarity,
		"xas":                  c.xas,
		"doi":                  c.doi,
		"eos":                  c.eos,
		"fermi":                c.fermi,
		"grain_boundaries":     c.grainBoundaries,
		"molecules":            c.molecules,
		"substrates":           c.substrates,
		"robocrys":             c.robocrys,
		"oxidation_states":     c.oxidationStates,
	}
	return c
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Materials returns the materials/core Rester.
func (c *Client) Materials() *MaterialsRester { return c.materials }

// Thermo returns the thermodynamics Rester.
func (c *Client) Thermo() *ThermoRester { return c.thermo }

// Summary returns the summary Rester, which aggregates the most used properties.
func (c *Client) Summary() *SummaryRester { return c.summary }

// ElectronicStructure returns the electronic structure Rester.
func (c *Client) ElectronicStructure() *ElectronicStructureRester { return c.electronicStructure }

// Synthesis returns the synthesis recipe Rester.
func (c *Client) Synthesis() *SynthesisRester { return c.synthesis }

// Tasks returns the calculation task Rester.
func (c *Client) Tasks() *TasksRester { return c.tasks }

// Electrodes returns the insertion electrode Rester.
func (c *Client) Electrodes() *ElectrodesRester { return c.electrodes }

// Magnetism returns the magnetism Rester.
func (c *Client) Magnetism() *MagnetismRester { return c.magnetism }

// Dielectric returns the dielectric Rester.
func (c *Client) Dielectric() *DielectricRester { return c.dielectric }

// Piezo returns the piezoelectric Rester.
func (c *Client) Piezo() *PiezoRester { return c.piezo }

// Elasticity returns the elasticity Rester.
func (c *Client) Elasticity() *ElasticityRester { return c.elasticity }

// SurfaceProperties returns the surface properties Rester.
func (c *Client) SurfaceProperties() *SurfacePropertiesRester { return c.surfaceProperties }

// Similarity returns the structural similarity Rester.
func (c *Client) Similarity() *SimilarityRester { return c.similarity }

// XAS returns the X-ray absorption spectra Rester.
func (c *Client) XAS() *XASRester { return c.xas }

// DOI returns the DOI Rester.
func (c *Client) DOI() *DOIRester { return c.doi }

// EOS returns the equations of state Rester.
func (c *Client) EOS() *EOSRester { return c.eos }

// Fermi returns the Fermi surface Rester.
func (c *Client) Fermi() *FermiRester { return c.fermi }

// GrainBoundaries returns the grain boundary Rester.
func (c *Client) GrainBoundaries() *GrainBoundariesRester { return c.grainBoundaries }

// Molecules returns the molecules Rester.
func (c *Client) Molecules() *MoleculesRester { return c.molecules }

// Substrates returns the substrates Rester.
func (c *Client) Substrates() *SubstratesRester { return c.substrates }

// Robocrys returns the Robocrystallographer description Rester.
func (c *Client) Robocrys() *RobocrysRester { return c.robocrys }

// OxidationStates returns the oxidation states Rester.
func (c *Client) OxidationStates() *OxidationStatesRester { return c.oxidationStates }

// Categories lists the names accepted by Rester, sorted.
func (c *Client) Categories() []string {
	out := make([]string, 0, len(c.byName))
	for name := range c.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Rester looks up a category by name ("grain_boundaries", "GrainBoundaries") or route suffix.
func (c *Client) Rester(name string) (GenericRester, error) {
	key := strcase.ToSnake(strings.TrimSpace(name))
	if r, ok := c.byName[key]; ok {
		return r, nil
	}
	suffix := strings.Trim(name, "/")
	for _, r := range c.byName {
		if r.Suffix() == suffix {
			return r, nil
		}
	}
	return nil, domain.Invalid("category", "unknown category %q, choose from: %s",
		name, strings.Join(c.Categories(), ", "))
}

// Heartbeat reports the API status and current database version.
func (c *Client) Heartbeat(ctx context.Context) (hb Heartbeat, err error) {
	ctx, sp := c.core.obs.begin(ctx, "heartbeat", "heartbeat")
	defer func() { c.core.obs.end(sp, err) }()

	hb, err = c.session.Heartbeat(ctx)
	if err != nil {
		return hb, fmt.Errorf("heartbeat: %w", err)
	}
	return hb, nil
}

// DatabaseVersion returns the current database version, e.g. "2025.09.25".
func (c *Client) DatabaseVersion(ctx context.Context) (string, error) {
	hb, err := c.Heartbeat(ctx)
	if err != nil {
		return "", err
	}
	if hb.DBVersion == "" {
		return "", errors.New("heartbeat: no database version in answer")
	}
	return hb.DBVersion, nil
}

// HealthReport aggregates the API and cache checks run by Health.
type HealthReport = health.Report

// Health checks the API and, when the cache store supports it, pings the cache.
// The API check reads one materials document past the cache, so a rejected key fails it.
// An unreachable API or a rejected key reports "error"; a failing cache only "degraded".
func (c *Client) Health(ctx context.Context) HealthReport {
	api := health.CheckerFunc(func(ctx context.Context) error {
		if _, err := c.Heartbeat(ctx); err != nil {
			return err
		}
		ctx = query.ContextWithRoute(ctx, materialsRoute.Suffix)
		_, err := c.session.Fetch(ctx, materialsRoute.Suffix+"/", query.Criteria{
			query.ParamFields: []string{domain.KeyMaterialID},
			query.ParamLimit:  1,
		})
		if err != nil {
			return fmt.Errorf("authenticated read: %w", err)
		}
		return nil
	})
	var cache health.Checker
	if p, ok := c.cache.(db.Pinger); ok {
		cache = health.CheckerFunc(p.Ping)
	}
	return health.New(api, cache).Check(ctx)
}

// MaterialIDFromTaskID returns the material a calculation task belongs to.
func (c *Client) MaterialIDFromTaskID(ctx context.Context, taskID string) (id string, err error) {
	ctx, sp := c.core.obs.begin(ctx, "material_id_from_task_id", materialsRoute.Suffix)
	defer func() { c.core.obs.end(sp, err) }()

	taskID, err = domain.ValidateIdentifier(taskID)
	if err != nil {
		return "", fmt.Errorf("material id from task id: %w", err)
	}
	id, err = c.core.materialIDFromTaskID(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("material id from task id: %w", err)
	}
	return id, nil
}

// TaskIDsForMaterial lists the calculation tasks associated with a material.
func (c *Client) TaskIDsForMaterial(ctx context.Context, materialID string) ([]string, error) {
	doc, err := c.materials.GetDocumentByID(ctx, materialID, Fields("task_ids"))
	if err != nil {
		return nil, fmt.Errorf("task ids for material: %w", err)
	}
	return doc.TaskIDs, nil
}

// StructureByMaterialID returns the final structure of a material, or its initial
// (pre-relaxation) structures when final is false.
func (c *Client) StructureByMaterialID(ctx context.Context, materialID string, final bool) ([]*Structure, error) {
	return c.materials.StructureByMaterialID(ctx, materialID, final)
}
