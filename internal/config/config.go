package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Auth     Auth     `envPrefix:"AUTH_"`
	Asaas    Asaas    `envPrefix:"ASAAS_"`
	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
}

type Asaas struct {
	// Sandbox selects the sandbox base URL; production otherwise.
	Sandbox      bool   `env:"SANDBOX" envDefault:"true"`
	APIKey       string `env:"API_KEY"`
	WebhookToken string `env:"WEBHOOK_TOKEN"`
}

type Stripe struct {
	SecretKey string `env:"SECRET_KEY"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

// Checkout tunes the initiator's throttle windows and UX delays.
// Defaults mirror production behavior; tests shrink the delays.
type Checkout struct {
	ThrottleWindowSec int `env:"THROTTLE_WINDOW_SEC" envDefault:"300"`
	MinIntervalSec    int `env:"MIN_INTERVAL_SEC" envDefault:"15"`
	MaxAttempts       int `env:"MAX_ATTEMPTS" envDefault:"3"`
	RecoveryWindowSec int `env:"RECOVERY_WINDOW_SEC" envDefault:"1800"`
	RedirectDelayMs   int `env:"REDIRECT_DELAY_MS" envDefault:"1500"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
