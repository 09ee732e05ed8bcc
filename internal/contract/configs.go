package contract

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/homerank/schema"
)

// Default values for configuration.
const (
	DefaultDatasetPath = "database/dataset_properti_surabaya.csv"
	DefaultResultLimit = 10
	MaxResultLimit     = 100000
	DefaultPrecision   = 4
	MaxPrecision       = 6
	DefaultRawWeight   = 100.0 // split evenly across the active criteria
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// WeightRawInput is one weight entry from the YAML config file.
// A list keeps criterion names intact, since viper lowercases map keys.
type WeightRawInput struct {
	Criterion string  `mapstructure:"criterion"`
	Weight    float64 `mapstructure:"weight"`
}

// Config holds the runtime configuration for a ranking run.
// This struct remains the "final, validated" config.
type Config struct {
	DatasetPath  string
	Certificates []string // empty means no certificate filter
	RowLimit     int      // 0 keeps every row
	ResultLimit  int      // 0 shows the full ranking
	Precision    int
	Output       schema.OutputMode
	OutputFile   string
	Detail       bool
	Explain      bool
	Width        int // Terminal width override (0 = auto-detect)
	Ideals       schema.IdealMode

	// Registry is the validated criteria registry. It is shared, never mutated.
	Registry     *schema.Registry
	RegistryFile string

	// Criteria are the selected criteria in selection order (registry order when none is given), carrying raw weights.
	Criteria []schema.Criterion

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	DatasetPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Dataset           string   `mapstructure:"dataset"`
	Certificate       []string `mapstructure:"certificate"`
	Criteria          []string `mapstructure:"criteria"`
	CriteriaFile      string   `mapstructure:"criteria-file"`
	Rows              int      `mapstructure:"rows"`
	Limit             int      `mapstructure:"limit"`
	Precision         int      `mapstructure:"precision"`
	Output            string   `mapstructure:"output"`
	OutputFile        string   `mapstructure:"output-file"`
	Detail            bool     `mapstructure:"detail"`
	Width             int      `mapstructure:"width"`
	Ideals            string   `mapstructure:"ideals"`
	CacheBackend      string   `mapstructure:"cache-backend"`
	CacheDBConnect    string   `mapstructure:"cache-db-connect"`
	AnalysisBackend   string   `mapstructure:"analysis-backend"`
	AnalysisDBConnect string   `mapstructure:"analysis-db-connect"`
	Emoji             string   `mapstructure:"emoji"`
	Color             string   `mapstructure:"color"`

	// --- Fields from rankCmd.Flags() ---
	Explain bool `mapstructure:"explain"`

	// --- Weight overrides from the --weights flag ---
	WeightsStr string `mapstructure:"weights-override"`

	// --- Weights from config file ---
	Weights []WeightRawInput `mapstructure:"weights"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Certificates = slices.Clone(c.Certificates)
	clone.Criteria = slices.Clone(c.Criteria)
	return &clone
}

// RawWeights returns the raw weight of every selected criterion.
func (c *Config) RawWeights() map[string]float64 {
	out := make(map[string]float64, len(c.Criteria))
	for _, cr := range c.Criteria {
		out[cr.Name] = cr.Weight
	}
	return out
}

// CriterionNames returns the selected criterion names in order.
func (c *Config) CriterionNames() []string {
	names := make([]string, len(c.Criteria))
	for i, cr := range c.Criteria {
		names[i] = cr.Name
	}
	return names
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRegistry(cfg, input); err != nil {
		return err
	}
	if err := processCriteria(cfg, input); err != nil {
		return err
	}
	processCertificates(cfg, input)
	resolveDatasetPath(cfg, input)
	return nil
}

// RankingOverrides holds per-request ranking parameters, such as the arguments
// of an MCP tool call. Zero values keep the base configuration.
type RankingOverrides struct {
	Dataset      string
	Certificates []string
	Criteria     []string
	Weights      string // same format as --weights
	Rows         int
	Limit        int
	Ideals       string
}

// RevalidateRanking applies overrides to a cloned config and re-runs the affected validation.
// Changing the criteria resets their weights to the defaults unless weights are given too.
func RevalidateRanking(cfg *Config, o RankingOverrides) error {
	if cfg.Registry == nil {
		cfg.Registry = schema.DefaultRegistry()
	}
	if d := strings.TrimSpace(o.Dataset); d != "" {
		cfg.DatasetPath = d
	}
	if len(o.Certificates) > 0 {
		processCertificates(cfg, &ConfigRawInput{Certificate: o.Certificates})
	}
	if o.Rows < 0 {
		return fmt.Errorf("rows must be 0 (all rows) or greater (received %d)", o.Rows)
	}
	if o.Rows > 0 {
		cfg.RowLimit = o.Rows
	}
	if o.Limit < 0 || o.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, o.Limit)
	}
	if o.Limit > 0 {
		cfg.ResultLimit = o.Limit
	}
	if o.Ideals != "" {
		mode := schema.IdealMode(strings.ToLower(strings.TrimSpace(o.Ideals)))
		if _, ok := schema.ValidIdealModes[mode]; !ok {
			return fmt.Errorf("invalid ideals '%s'. must be direction, normalized", o.Ideals)
		}
		cfg.Ideals = mode
	}

	if len(o.Criteria) == 0 && strings.TrimSpace(o.Weights) == "" {
		return nil
	}
	input := &ConfigRawInput{Criteria: o.Criteria, WeightsStr: o.Weights}
	if len(o.Criteria) == 0 {
		input.Criteria = cfg.CriterionNames()
		for _, c := range cfg.Criteria {
			input.Weights = append(input.Weights, WeightRawInput{Criterion: c.Name, Weight: c.Weight})
		}
	}
	return processCriteria(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// Both stores create tables of their own, so a shared SQLite file is rejected
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all registry-independent fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Explain = input.Explain
	cfg.Width = input.Width

	emojis, err := parseOptionalBool(input.Emoji, false)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := parseOptionalBool(input.Color, true)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Rows < 0 {
		return fmt.Errorf("rows must be 0 (all rows) or greater (received %d)", input.Rows)
	}
	cfg.RowLimit = input.Rows

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.Ideals = schema.IdealMode(strings.ToLower(strings.TrimSpace(input.Ideals)))
	if cfg.Ideals == "" {
		cfg.Ideals = schema.IdealsByDirection
	}
	if _, ok := schema.ValidIdealModes[cfg.Ideals]; !ok {
		return fmt.Errorf("invalid ideals '%s'. must be direction, normalized", input.Ideals)
	}

	return validateBackendConfigs(cfg, input)
}

// parseOptionalBool is ParseBoolString with a fallback for unset values.
func parseOptionalBool(s string, fallback bool) (bool, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return ParseBoolString(s)
}

// processRegistry loads the custom registry file, or falls back to the default one.
func processRegistry(cfg *Config, input *ConfigRawInput) error {
	cfg.RegistryFile = strings.TrimSpace(input.CriteriaFile)
	if cfg.RegistryFile == "" {
		cfg.Registry = schema.DefaultRegistry()
		return nil
	}
	reg, err := LoadRegistryFile(cfg.RegistryFile)
	if err != nil {
		return err
	}
	cfg.Registry = reg
	return nil
}

// processCriteria resolves the selected criteria against the registry and assigns raw weights.
// An explicit selection keeps its given order; no selection takes every criterion in registry order.
func processCriteria(cfg *Config, input *ConfigRawInput) error {
	var names []string
	for _, name := range input.Criteria {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(names, name) {
			continue
		}
		if _, ok := cfg.Registry.Lookup(name); !ok {
			return fmt.Errorf("%w: unknown criterion '%s'. must be one of: %s",
				schema.ErrInvalidInput, name, strings.Join(cfg.Registry.CriterionNames(), ", "))
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		names = cfg.Registry.CriterionNames()
	}

	cfg.Criteria = make([]schema.Criterion, 0, len(names))
	for _, name := range names {
		spec, _ := cfg.Registry.Lookup(name)
		cfg.Criteria = append(cfg.Criteria, schema.Criterion{Name: spec.Name, Direction: spec.Direction})
	}

	weights, err := collectWeights(input)
	if err != nil {
		return err
	}

	defaultWeight := math.Trunc(DefaultRawWeight / float64(len(cfg.Criteria)))
	for i := range cfg.Criteria {
		cfg.Criteria[i].Weight = defaultWeight
	}
	for name, w := range weights {
		idx := slices.IndexFunc(cfg.Criteria, func(c schema.Criterion) bool { return c.Name == name })
		if idx < 0 {
			return fmt.Errorf("%w: weight given for criterion '%s' which is not selected", schema.ErrInvalidInput, name)
		}
		cfg.Criteria[idx].Weight = w
	}
	return nil
}

// collectWeights merges config file weights with the --weights override.
func collectWeights(input *ConfigRawInput) (map[string]float64, error) {
	weights := make(map[string]float64)
	for _, w := range input.Weights {
		name := strings.TrimSpace(w.Criterion)
		if name == "" {
			return nil, fmt.Errorf("%w: weight entry without criterion", schema.ErrInvalidInput)
		}
		if err := validateRawWeight(name, w.Weight); err != nil {
			return nil, err
		}
		weights[name] = w.Weight
	}
	if input.WeightsStr != "" {
		parsed, err := ParseWeightsString(input.WeightsStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --weights format: %w", err)
		}
		for name, w := range parsed {
			weights[name] = w
		}
	}
	return weights, nil
}

func validateRawWeight(name string, w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return fmt.Errorf("%w: weight for criterion '%s' must be a non-negative number (received %v)", schema.ErrInvalidInput, name, w)
	}
	return nil
}

// ParseWeightsString parses a string like "Price_Sudah:30,Kamar Tidur:20"
// into a map of criterion name to raw weight.
func ParseWeightsString(s string) (map[string]float64, error) {
	weights := make(map[string]float64)
	if strings.TrimSpace(s) == "" {
		return weights, nil
	}

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sep := strings.LastIndex(part, ":")
		if sep < 0 {
			return nil, fmt.Errorf("invalid weight format '%s', expected 'criterion:value'", part)
		}
		name := strings.TrimSpace(part[:sep])
		valueStr := strings.TrimSpace(part[sep+1:])
		if name == "" {
			return nil, fmt.Errorf("invalid weight format '%s', criterion is empty", part)
		}
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight value '%s' for criterion %s: %w", valueStr, name, err)
		}
		if err := validateRawWeight(name, value); err != nil {
			return nil, err
		}
		weights[name] = value
	}
	return weights, nil
}

// processCertificates resolves certificate codes such as "SHM" to the full dataset values.
func processCertificates(cfg *Config, input *ConfigRawInput) {
	cfg.Certificates = make([]string, 0, len(input.Certificate))
	for _, raw := range input.Certificate {
		resolved := ResolveCertificate(raw)
		if resolved == "" || slices.Contains(cfg.Certificates, resolved) {
			continue
		}
		cfg.Certificates = append(cfg.Certificates, resolved)
	}
	if len(cfg.Certificates) == 0 {
		cfg.Certificates = nil
	}
}

// ResolveCertificate maps a certificate code or full name to its dataset value.
// Values outside the known set are returned trimmed, for custom datasets.
func ResolveCertificate(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	for _, full := range schema.DefaultCertificates {
		if strings.EqualFold(token, full) || strings.EqualFold(token, certificateCode(full)) {
			return full
		}
	}
	return token
}

// certificateCode returns the leading word of a certificate name, e.g. "SHM".
func certificateCode(full string) string {
	code, _, _ := strings.Cut(full, " ")
	return code
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveDatasetPath picks the positional argument, then --dataset, then the default.
func resolveDatasetPath(cfg *Config, input *ConfigRawInput) {
	switch {
	case strings.TrimSpace(input.DatasetPathStr) != "":
		cfg.DatasetPath = strings.TrimSpace(input.DatasetPathStr)
	case strings.TrimSpace(input.Dataset) != "":
		cfg.DatasetPath = strings.TrimSpace(input.Dataset)
	default:
		cfg.DatasetPath = DefaultDatasetPath
	}
}
