// Package config loads autolabel settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/autolabel/internal/filters"
	"github.com/joshsymonds/autolabel/internal/sender"
	"github.com/joshsymonds/autolabel/internal/workflow"
)

// EnvPrefix prefixes every environment override, e.g. AUTOLABEL_LOGGING_LEVEL.
const EnvPrefix = "AUTOLABEL"

type MarkerConfig struct {
	Prefix string `mapstructure:"prefix"`
}

type WaitsConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	NavigationSettle  time.Duration `mapstructure:"navigation_settle"`
	FormTimeout       time.Duration `mapstructure:"form_timeout"`
	CriteriaSettle    time.Duration `mapstructure:"criteria_settle"`
	ActionsSettle     time.Duration `mapstructure:"actions_settle"`
	ToggleSettle      time.Duration `mapstructure:"toggle_settle"`
	EditSettle        time.Duration `mapstructure:"edit_settle"`
	UpdateSettle      time.Duration `mapstructure:"update_settle"`
}

type ExtractConfig struct {
	MaxDepth        int      `mapstructure:"max_depth"`
	AddressAttrs    []string `mapstructure:"address_attrs"`
	OwnAttrs        []string `mapstructure:"own_attrs"`
	SenderSelectors []string `mapstructure:"sender_selectors"`
}

type GmailConfig struct {
	URL             string `mapstructure:"url"`
	FiltersLocation string `mapstructure:"filters_location"`
}

// UIConfig holds the wording variants the heuristics look for, in priority order.
type UIConfig struct {
	CreateFilter    []string `mapstructure:"create_filter"`
	From            []string `mapstructure:"from"`
	DoesntHave      []string `mapstructure:"doesnt_have"`
	CriteriaLabels  []string `mapstructure:"criteria_labels"`
	Proceed         []string `mapstructure:"proceed"`
	ApplyLabel      []string `mapstructure:"apply_label"`
	Edit            []string `mapstructure:"edit"`
	Cancel          []string `mapstructure:"cancel"`
	Update          []string `mapstructure:"update"`
	Continue        []string `mapstructure:"continue"`
	RuleRowSelector string   `mapstructure:"rule_row_selector"`
}

type ChromeConfig struct {
	DevToolsURL string `mapstructure:"devtools_url"`
	UserDataDir string `mapstructure:"user_data_dir"`
	Headless    bool   `mapstructure:"headless"`
}

type GmailctlConfig struct {
	Binary    string `mapstructure:"binary"`
	ConfigDir string `mapstructure:"config_dir"`
}

type APIConfig struct {
	RPS int `mapstructure:"rps"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the effective configuration.
type Config struct {
	Marker   MarkerConfig   `mapstructure:"marker"`
	Waits    WaitsConfig    `mapstructure:"waits"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Gmail    GmailConfig    `mapstructure:"gmail"`
	UI       UIConfig       `mapstructure:"ui"`
	Chrome   ChromeConfig   `mapstructure:"chrome"`
	Gmailctl GmailctlConfig `mapstructure:"gmailctl"`
	API      APIConfig      `mapstructure:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	v *viper.Viper
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"log-level":       "logging.level",
	"log-format":      "logging.format",
	"marker-prefix":   "marker.prefix",
	"devtools-url":    "chrome.devtools_url",
	"user-data-dir":   "chrome.user_data_dir",
	"headless":        "chrome.headless",
	"gmailctl-config": "gmailctl.config_dir",
}

// Load reads path (or config.yaml from the usual places when path is
// empty), applies AUTOLABEL_* environment overrides and any flags in
// flags that were set, and validates the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.config/autolabel")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	policy := filters.DefaultPolicy()
	texts := filters.DefaultTexts()
	extract := sender.DefaultOptions()

	v.SetDefault("marker.prefix", filters.DefaultMarkerPrefix)

	v.SetDefault("waits.poll_interval", policy.PollInterval.String())
	v.SetDefault("waits.navigation_timeout", policy.NavigationTimeout.String())
	v.SetDefault("waits.navigation_settle", policy.NavigationSettle.String())
	v.SetDefault("waits.form_timeout", policy.FormTimeout.String())
	v.SetDefault("waits.criteria_settle", policy.CriteriaSettle.String())
	v.SetDefault("waits.actions_settle", policy.ActionsSettle.String())
	v.SetDefault("waits.toggle_settle", policy.ToggleSettle.String())
	v.SetDefault("waits.edit_settle", policy.EditSettle.String())
	v.SetDefault("waits.update_settle", policy.UpdateSettle.String())

	v.SetDefault("extract.max_depth", extract.MaxDepth)
	v.SetDefault("extract.address_attrs", extract.AddressAttrs)
	v.SetDefault("extract.own_attrs", extract.OwnAttrs)
	v.SetDefault("extract.sender_selectors", extract.SenderSelectors)

	v.SetDefault("gmail.url", "https://mail.google.com/mail/u/0/")
	v.SetDefault("gmail.filters_location", policy.FiltersLocation)

	v.SetDefault("ui.create_filter", texts.CreateFilter)
	v.SetDefault("ui.from", texts.From)
	v.SetDefault("ui.doesnt_have", texts.DoesntHave)
	v.SetDefault("ui.criteria_labels", texts.CriteriaLabels)
	v.SetDefault("ui.proceed", texts.Proceed)
	v.SetDefault("ui.apply_label", texts.ApplyLabel)
	v.SetDefault("ui.edit", texts.Edit)
	v.SetDefault("ui.cancel", texts.Cancel)
	v.SetDefault("ui.update", texts.Update)
	v.SetDefault("ui.continue", texts.Continue)
	v.SetDefault("ui.rule_row_selector", texts.RuleRowSelector)

	v.SetDefault("chrome.devtools_url", "")
	v.SetDefault("chrome.user_data_dir", "")
	v.SetDefault("chrome.headless", false)

	v.SetDefault("gmailctl.binary", "gmailctl")
	v.SetDefault("gmailctl.config_dir", "$HOME/.gmailctl")

	v.SetDefault("api.rps", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate rejects settings the workflow cannot run with.
func (c *Config) Validate() error {
	var errs []error
	waits := map[string]time.Duration{
		"waits.poll_interval":      c.Waits.PollInterval,
		"waits.navigation_timeout": c.Waits.NavigationTimeout,
		"waits.form_timeout":       c.Waits.FormTimeout,
	}
	for key, d := range waits {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, d))
		}
	}
	required := map[string][]string{
		"ui.create_filter":   c.UI.CreateFilter,
		"ui.from":            c.UI.From,
		"ui.criteria_labels": c.UI.CriteriaLabels,
		"ui.proceed":         c.UI.Proceed,
		"ui.apply_label":     c.UI.ApplyLabel,
		"ui.update":          c.UI.Update,
	}
	for key, variants := range required {
		if len(variants) == 0 {
			errs = append(errs, fmt.Errorf("%s needs at least one variant", key))
		}
	}
	if strings.TrimSpace(c.UI.RuleRowSelector) == "" {
		errs = append(errs, errors.New("ui.rule_row_selector is required"))
	}
	if c.API.RPS <= 0 {
		errs = append(errs, fmt.Errorf("api.rps must be positive, got %d", c.API.RPS))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Policy adapts the waits to the filters components.
func (c *Config) Policy() filters.Policy {
	return filters.Policy{
		PollInterval:      c.Waits.PollInterval,
		NavigationTimeout: c.Waits.NavigationTimeout,
		NavigationSettle:  c.Waits.NavigationSettle,
		FormTimeout:       c.Waits.FormTimeout,
		CriteriaSettle:    c.Waits.CriteriaSettle,
		ActionsSettle:     c.Waits.ActionsSettle,
		ToggleSettle:      c.Waits.ToggleSettle,
		EditSettle:        c.Waits.EditSettle,
		UpdateSettle:      c.Waits.UpdateSettle,
		FiltersLocation:   c.Gmail.FiltersLocation,
	}
}

func (c *Config) Texts() filters.Texts {
	return filters.Texts{
		CreateFilter:    c.UI.CreateFilter,
		From:            c.UI.From,
		DoesntHave:      c.UI.DoesntHave,
		CriteriaLabels:  c.UI.CriteriaLabels,
		Proceed:         c.UI.Proceed,
		ApplyLabel:      c.UI.ApplyLabel,
		Edit:            c.UI.Edit,
		Cancel:          c.UI.Cancel,
		Update:          c.UI.Update,
		Continue:        c.UI.Continue,
		RuleRowSelector: c.UI.RuleRowSelector,
	}
}

func (c *Config) ExtractOptions() sender.Options {
	return sender.Options{
		MaxDepth:        c.Extract.MaxDepth,
		AddressAttrs:    c.Extract.AddressAttrs,
		OwnAttrs:        c.Extract.OwnAttrs,
		SenderSelectors: c.Extract.SenderSelectors,
	}
}

// Settings bundles everything the orchestrator needs.
func (c *Config) Settings() workflow.Settings {
	return workflow.Settings{
		Policy:       c.Policy(),
		Texts:        c.Texts(),
		Extract:      c.ExtractOptions(),
		MarkerPrefix: c.Marker.Prefix,
	}
}

// YAML renders the effective settings, defaults included.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}
