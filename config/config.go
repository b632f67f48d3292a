package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"gopunch/attendance"
	"gopunch/importer"
	"gopunch/internal/timeutil"
	"gopunch/output"
)

const (
	KeyParserLayout      = "parser.layout"
	KeyParserLayouts     = "parser.layouts"
	KeySinglePunchCutoff = "policy.single_punch_cutoff"
	KeyOutputFormat      = "output.format"
	KeyOutputSentinels   = "output.sentinels"
	KeyServePort         = "serve.port"
	KeyServeMaxUploadMB  = "serve.max_upload_mb"
	KeyServeCacheMaxMB   = "serve.cache_max_mb"
)

type Config struct {
	Parser ParserConfig `mapstructure:"parser"`
	Policy PolicyConfig `mapstructure:"policy"`
	Output OutputConfig `mapstructure:"output"`
	Serve  ServeConfig  `mapstructure:"serve"`
}

type ParserConfig struct {
	Layout  string         `mapstructure:"layout" validate:"required"`
	Layouts []LayoutConfig `mapstructure:"layouts" validate:"required,min=1,dive"`
}

type LayoutConfig struct {
	Name              string   `mapstructure:"name" validate:"required"`
	PrefixPresent     bool     `mapstructure:"prefix_present"`
	PrefixTokens      int      `mapstructure:"prefix_tokens" validate:"min=0,max=2"`
	TrailingConstants int      `mapstructure:"trailing_constants" validate:"min=0,max=7"`
	Encodings         []string `mapstructure:"encodings"`
}

type PolicyConfig struct {
	SinglePunchCutoff string `mapstructure:"single_punch_cutoff" validate:"required"`
}

type OutputConfig struct {
	Format    string `mapstructure:"format" validate:"required,oneof=excel xlsx csv"`
	Sentinels string `mapstructure:"sentinels" validate:"required,oneof=lower title"`
}

type ServeConfig struct {
	Port        int `mapstructure:"port" validate:"min=1,max=65535"`
	MaxUploadMB int `mapstructure:"max_upload_mb" validate:"min=1"`
	CacheMaxMB  int `mapstructure:"cache_max_mb" validate:"min=0"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// Default returns the validated built-in configuration.
func Default() *Config {
	local := viper.New()
	setDefaults(local)
	cfg, err := loadAndValidateFromViper(local)
	if err != nil {
		panic(fmt.Sprintf("built-in configuration is invalid: %v", err))
	}
	return cfg
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	var b strings.Builder
	b.WriteString(`# gopunch configuration
parser:
  # "auto" picks the layout that parses the most lines, or name one of the layouts below.
  layout: "auto"
  layouts:
`)
	for _, layout := range importer.DefaultLayouts() {
		fmt.Fprintf(&b, "    - name: %q\n", layout.Name)
		fmt.Fprintf(&b, "      prefix_present: %t\n", layout.PrefixPresent)
		fmt.Fprintf(&b, "      prefix_tokens: %d\n", layout.PrefixTokens)
		fmt.Fprintf(&b, "      trailing_constants: %d\n", layout.TrailingConstants)
		fmt.Fprintf(&b, "      encodings: [%s]\n", quoteAll(layout.Encodings))
	}
	b.WriteString(`
policy:
  # A lone punch at or before this time is a check-in, after it a check-out.
  single_punch_cutoff: "14:00:00"

output:
  format: "excel"
  sentinels: "lower"

serve:
  port: 8080
  max_upload_mb: 32
  cache_max_mb: 64
`)
	return b.String()
}

// ImportLayouts converts the configured layouts for the parser.
func (c Config) ImportLayouts() []importer.Layout {
	layouts := make([]importer.Layout, 0, len(c.Parser.Layouts))
	for _, layout := range c.Parser.Layouts {
		layouts = append(layouts, importer.Layout{
			Name:              layout.Name,
			PrefixPresent:     layout.PrefixPresent,
			PrefixTokens:      layout.PrefixTokens,
			TrailingConstants: layout.TrailingConstants,
			Encodings:         layout.Encodings,
		})
	}
	return layouts
}

func (c Config) AttendancePolicy() (attendance.Policy, error) {
	cutoff, err := timeutil.ParseClock(c.Policy.SinglePunchCutoff)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("invalid %s: %w", KeySinglePunchCutoff, err)
	}
	if cutoff <= 0 {
		return attendance.Policy{}, fmt.Errorf("invalid %s: must be after 00:00:00", KeySinglePunchCutoff)
	}
	return attendance.Policy{SinglePunchCutoff: cutoff}, nil
}

func (c Config) Sentinels() (output.Sentinels, error) {
	return output.SentinelsForStyle(c.Output.Sentinels)
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateLayouts(cfg.Parser); err != nil {
		return nil, err
	}
	if _, err := cfg.AttendancePolicy(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyParserLayout, "auto")
	v.SetDefault(KeyParserLayouts, defaultLayoutMaps())
	v.SetDefault(KeySinglePunchCutoff, timeutil.FormatClock(attendance.DefaultSinglePunchCutoff))
	v.SetDefault(KeyOutputFormat, output.FormatExcel)
	v.SetDefault(KeyOutputSentinels, output.SentinelStyleLower)
	v.SetDefault(KeyServePort, 8080)
	v.SetDefault(KeyServeMaxUploadMB, 32)
	v.SetDefault(KeyServeCacheMaxMB, 64)
}

func defaultLayoutMaps() []map[string]any {
	layouts := importer.DefaultLayouts()
	out := make([]map[string]any, 0, len(layouts))
	for _, layout := range layouts {
		out = append(out, map[string]any{
			"name":               layout.Name,
			"prefix_present":     layout.PrefixPresent,
			"prefix_tokens":      layout.PrefixTokens,
			"trailing_constants": layout.TrailingConstants,
			"encodings":          layout.Encodings,
		})
	}
	return out
}

func validateLayouts(parser ParserConfig) error {
	cfg := Config{Parser: parser}
	layouts := cfg.ImportLayouts()
	for i, layout := range layouts {
		if strings.EqualFold(strings.TrimSpace(layout.Name), "auto") {
			return fmt.Errorf("validation failed: parser.layouts[%d].name %q is reserved", i, layout.Name)
		}
		// Lookup ignores case, '-', '_' and spaces, so names must differ beyond those.
		if _, err := importer.LayoutByName(layout.Name, layouts[:i]); err == nil {
			return fmt.Errorf("validation failed: duplicate layout name %q", layout.Name)
		}
		if err := layout.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	if strings.EqualFold(strings.TrimSpace(parser.Layout), "auto") {
		return nil
	}
	if _, err := importer.LayoutByName(parser.Layout, layouts); err != nil {
		return fmt.Errorf("validation failed: parser.layout: %w", err)
	}
	return nil
}

func quoteAll(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, fmt.Sprintf("%q", value))
	}
	return strings.Join(quoted, ", ")
}
