package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Account credentials. Optional; interactive login is supported.
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	OTPKey      string `yaml:"otp_key"`
	ParentalPIN string `yaml:"parental_pin"`

	Headless bool `yaml:"headless"`
	DryRun   bool `yaml:"dry_run"`
	Debug    bool `yaml:"debug"`

	// Catalog API parameters.
	Locale  string `yaml:"locale"`
	Country string `yaml:"country"`

	DataDir string `yaml:"data_dir"`

	TimeoutSeconds      int `yaml:"timeout_seconds"`
	LoginTimeoutSeconds int `yaml:"login_timeout_seconds"`

	MaxRetries        int `yaml:"max_retries"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`

	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// BirthDate (YYYY-MM-DD) is supplied to age-gate widgets. A policy value,
	// not user data; may not satisfy every region's minimum-age requirement.
	BirthDate string `yaml:"birth_date"`

	WebhookURL string `yaml:"webhook_url"`

	Selectors SelectorConfig `yaml:"selectors"`
}

// SelectorConfig holds every storefront selector and text marker the claim
// flow branches on, so the flow stays data-driven and testable.
type SelectorConfig struct {
	Navigation      string `yaml:"navigation"`
	LoggedInAttr    string `yaml:"logged_in_attr"`
	DisplayNameAttr string `yaml:"display_name_attr"`

	FreeOfferLink string `yaml:"free_offer_link"`
	FreeOfferText string `yaml:"free_offer_text"`

	PurchaseButton string `yaml:"purchase_button"`
	BundleMarker   string `yaml:"bundle_marker"`
	Heading        string `yaml:"heading"`

	AgeSelect   string `yaml:"age_select"`
	MonthToggle string `yaml:"month_toggle"`
	MonthMenu   string `yaml:"month_menu"`
	DayToggle   string `yaml:"day_toggle"`
	DayMenu     string `yaml:"day_menu"`
	YearToggle  string `yaml:"year_toggle"`
	YearMenu    string `yaml:"year_menu"`

	// PlaceOrderButton excludes the button while the payment surface is
	// still loading.
	PlaceOrderButton string `yaml:"place_order_button"`

	CheckoutFrame   string `yaml:"checkout_frame"`
	EULACheckbox    string `yaml:"eula_checkbox"`
	PINInput        string `yaml:"pin_input"`
	ChallengeWidget string `yaml:"challenge_widget"`

	RegionLockText   string `yaml:"region_lock_text"`
	ConfirmationText string `yaml:"confirmation_text"`
}

func DefaultConfig() *Config {
	return &Config{
		Headless:            true,
		DryRun:              false,
		Debug:               false,
		Locale:              "en-US",
		Country:             "US",
		DataDir:             defaultDataDir(),
		TimeoutSeconds:      30,
		LoginTimeoutSeconds: 180,
		MaxRetries:          2,
		RetryDelaySeconds:   5,
		ViewportWidth:       1280,
		ViewportHeight:      720,
		BirthDate:           "1987-01-01",
		Selectors: SelectorConfig{
			Navigation:       "egs-navigation",
			LoggedInAttr:     "isloggedin",
			DisplayNameAttr:  "displayname",
			FreeOfferLink:    "a",
			FreeOfferText:    "Free Now",
			PurchaseButton:   `button[data-testid="purchase-cta-button"]`,
			BundleMarker:     "About Bundle",
			Heading:          "h1",
			AgeSelect:        `[data-testid="AgeSelect"]`,
			MonthToggle:      "#month_toggle",
			MonthMenu:        "#month_menu li",
			DayToggle:        "#day_toggle",
			DayMenu:          "#day_menu li",
			YearToggle:       "#year_toggle",
			YearMenu:         "#year_menu li",
			PlaceOrderButton: "button:not(:has(.payment-loading--loading))",
			CheckoutFrame:    "#webPurchaseContainer iframe",
			EULACheckbox:     "input#agree",
			PINInput:         `input[type="password"][autocomplete="off"]`,
			ChallengeWidget:  ".h_captcha_challenge iframe, #h_captcha_challenge_checkout_free_prod iframe",
			RegionLockText:   "unavailable in your region",
			ConfirmationText: "Thanks for your order",
		},
	}
}

// LoadConfig loads the YAML config, creating it with defaults when missing,
// then applies .env/environment overrides and creates the data directories.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	config.applyEnvOverrides()

	for _, dir := range []string{config.DataDir, config.BrowserProfileDir(), config.ScreenshotsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	// A missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	if v := os.Getenv("EG_EMAIL"); v != "" {
		c.Email = v
	}
	if v := os.Getenv("EG_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("EG_OTPKEY"); v != "" {
		c.OTPKey = v
	}
	if v := os.Getenv("EG_PARENTALPIN"); v != "" {
		c.ParentalPIN = v
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		c.Headless = v != "0"
	}
	if os.Getenv("DRYRUN") == "1" {
		c.DryRun = true
	}
	if os.Getenv("DEBUG") == "1" {
		c.Debug = true
	}
	if v := os.Getenv("TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("LOGIN_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.LoginTimeoutSeconds = n
		}
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.WebhookURL = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("LOCALE"); v != "" {
		c.Locale = v
	}
	if v := os.Getenv("COUNTRY"); v != "" {
		c.Country = v
	}
}

func (c *Config) BrowserProfileDir() string {
	return filepath.Join(c.DataDir, "browser-profile")
}

func (c *Config) ScreenshotsDir() string {
	return filepath.Join(c.DataDir, "screenshots")
}

func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "claimed.json")
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) LoginTimeout() time.Duration {
	return time.Duration(c.LoginTimeoutSeconds) * time.Second
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// birthDateParts splits the configured birth date into year, month and day
// strings as the age-select widget expects them. Falls back to the default
// when the value does not parse.
func (c *Config) birthDateParts() (year, month, day string) {
	t, err := time.Parse("2006-01-02", c.BirthDate)
	if err != nil {
		t, _ = time.Parse("2006-01-02", DefaultConfig().BirthDate)
	}
	return t.Format("2006"), t.Format("01"), t.Format("02")
}

func (c *Config) debugLog(format string, args ...interface{}) {
	if c.Debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./freegames-data"
	}
	return filepath.Join(home, ".freegames")
}
