package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Twilio   TwilioConfig
	Booking  BookingConfig
	Calendar CalendarConfig
	OpenAI   OpenAIConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for managed-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// Locale/Voice drive <Say> and <Gather> attributes.
	Locale string
	Voice  string

	// GatherTimeoutSec is the per-turn input timeout spoken callers get.
	GatherTimeoutSec int
}

type BookingConfig struct {
	// Region is the numbering-plan region for phone normalization (ISO 3166-1).
	Region string

	// Timezone is the business timezone for spoken times and hours checks.
	Timezone string

	// Business hours, local time, [OpenHour, CloseHour).
	OpenHour  int
	CloseHour int

	// SlotToleranceMin is the window within which two appointments for the
	// same user count as the same slot.
	SlotToleranceMin int

	DefaultDurationMin int

	// TurnBudget bounds a whole webhook turn; the provider hangs up around 3s.
	TurnBudget time.Duration
	// StrategyBudget bounds one extraction strategy inside a turn.
	StrategyBudget time.Duration

	SessionTTL time.Duration
	ProfileTTL time.Duration
}

type CalendarConfig struct {
	// BaseURL of the external calendar service; empty disables the calendar
	// (availability fails open, event creation is skipped).
	BaseURL    string
	CalendarID string

	// Service-account identity used to sign request JWTs.
	ClientEmail   string
	PrivateKeyPEM string

	HTTPTimeout time.Duration
}

type OpenAIConfig struct {
	// APIKey empty disables the LLM fallback extraction strategy.
	APIKey string
	Model  string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.Locale = strings.TrimSpace(os.Getenv("TWILIO_LOCALE"))
	c.Twilio.Voice = strings.TrimSpace(os.Getenv("TWILIO_VOICE"))
	c.Twilio.GatherTimeoutSec = optInt("TWILIO_GATHER_TIMEOUT_SEC")

	c.Booking.Region = strings.TrimSpace(os.Getenv("BOOKING_REGION"))
	c.Booking.Timezone = strings.TrimSpace(os.Getenv("BOOKING_TIMEZONE"))
	c.Booking.OpenHour = optInt("BOOKING_OPEN_HOUR")
	c.Booking.CloseHour = optInt("BOOKING_CLOSE_HOUR")
	c.Booking.SlotToleranceMin = optInt("BOOKING_SLOT_TOLERANCE_MIN")
	c.Booking.DefaultDurationMin = optInt("BOOKING_DEFAULT_DURATION_MIN")
	c.Booking.TurnBudget = mustDuration("BOOKING_TURN_BUDGET")
	c.Booking.StrategyBudget = mustDuration("BOOKING_STRATEGY_BUDGET")
	c.Booking.SessionTTL = mustDuration("BOOKING_SESSION_TTL")
	c.Booking.ProfileTTL = mustDuration("BOOKING_PROFILE_TTL")

	c.Calendar.BaseURL = strings.TrimSpace(os.Getenv("CALENDAR_BASE_URL"))
	c.Calendar.CalendarID = strings.TrimSpace(os.Getenv("CALENDAR_ID"))
	c.Calendar.ClientEmail = strings.TrimSpace(os.Getenv("CALENDAR_CLIENT_EMAIL"))
	c.Calendar.PrivateKeyPEM = os.Getenv("CALENDAR_PRIVATE_KEY")
	c.Calendar.HTTPTimeout = mustDuration("CALENDAR_HTTP_TIMEOUT")

	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAI.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Twilio.Locale == "" {
		c.Twilio.Locale = "en-US"
	}
	if c.Twilio.Voice == "" {
		c.Twilio.Voice = "Polly.Joanna"
	}
	if c.Twilio.GatherTimeoutSec <= 0 {
		c.Twilio.GatherTimeoutSec = 5
	}

	if c.Booking.Region == "" {
		c.Booking.Region = "US"
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "America/New_York"
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("BOOKING_TIMEZONE is not a valid IANA zone: %q", c.Booking.Timezone))
	}
	if c.Booking.OpenHour <= 0 {
		c.Booking.OpenHour = 9
	}
	if c.Booking.CloseHour <= 0 {
		c.Booking.CloseHour = 17
	}
	if c.Booking.OpenHour >= c.Booking.CloseHour {
		errs = append(errs, fmt.Errorf("BOOKING_OPEN_HOUR (%d) must be before BOOKING_CLOSE_HOUR (%d)", c.Booking.OpenHour, c.Booking.CloseHour))
	}
	if c.Booking.SlotToleranceMin <= 0 {
		c.Booking.SlotToleranceMin = 15
	}
	if c.Booking.DefaultDurationMin <= 0 {
		c.Booking.DefaultDurationMin = 30
	}
	if c.Booking.TurnBudget <= 0 {
		// Twilio gives roughly 3 seconds before it treats the webhook as dead.
		c.Booking.TurnBudget = 3 * time.Second
	}
	if c.Booking.StrategyBudget <= 0 {
		c.Booking.StrategyBudget = 800 * time.Millisecond
	}
	if c.Booking.StrategyBudget >= c.Booking.TurnBudget {
		errs = append(errs, errors.New("BOOKING_STRATEGY_BUDGET must be less than BOOKING_TURN_BUDGET"))
	}
	if c.Booking.SessionTTL <= 0 {
		c.Booking.SessionTTL = 15 * time.Minute
	}
	if c.Booking.ProfileTTL <= 0 {
		c.Booking.ProfileTTL = 365 * 24 * time.Hour
	}

	if c.Calendar.BaseURL != "" {
		if c.Calendar.CalendarID == "" {
			errs = append(errs, errors.New("CALENDAR_ID is required when CALENDAR_BASE_URL is set"))
		}
		if c.Calendar.ClientEmail == "" || c.Calendar.PrivateKeyPEM == "" {
			errs = append(errs, errors.New("CALENDAR_CLIENT_EMAIL and CALENDAR_PRIVATE_KEY are required when CALENDAR_BASE_URL is set"))
		}
	}
	if c.Calendar.HTTPTimeout <= 0 {
		c.Calendar.HTTPTimeout = 2 * time.Second
	}

	if c.OpenAI.APIKey != "" && c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optInt reads an optional integer; zero means "apply default in Validate".
func optInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
