package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database    Database    `envPrefix:"DB_"`
	Redis       Redis       `envPrefix:"REDIS_"`
	Idempotency Idempotency `envPrefix:"IDEMPOTENCY_"`
	Fees        Fees        `envPrefix:"FEES_"`
	Limits      Limits      `envPrefix:"MIN_AMOUNT_"`
	Auth        Auth        `envPrefix:"AUTH_"`

	EnabledProviders []string `env:"ENABLED_PROVIDERS" envSeparator:"," envDefault:"CARD_NETWORK,UPI_NETWORK,WALLET_A,WALLET_B,BANK_TRANSFER"`

	BrainTree    Braintree    `envPrefix:"BRAINTREE_"`
	UPI          UPI          `envPrefix:"UPI_"`
	Paypal       Paypal       `envPrefix:"PAYPAL_"`
	FormWallet   FormWallet   `envPrefix:"FORM_WALLET_"`
	BankTransfer BankTransfer `envPrefix:"BANK_TRANSFER_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	// json or console; empty follows ENVIRONMENT
	Format string `env:"LOG_FORMAT"`
}

type HTTPServer struct {
	Host      string  `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port      string  `env:"HTTP_PORT" envDefault:"8080"`
	RateLimit float64 `env:"HTTP_RATE_LIMIT" envDefault:"20"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	URL    string `env:"URL" envDefault:"payments.db"`
}

type Redis struct {
	// empty URL keeps idempotency in process memory
	URL string `env:"URL"`
}

type Idempotency struct {
	TTL             time.Duration `env:"TTL" envDefault:"5m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"2m"`
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"45s"`
	ClaimTTL        time.Duration `env:"CLAIM_TTL" envDefault:"60s"`
	ClaimWait       time.Duration `env:"CLAIM_WAIT" envDefault:"10s"`
}

type Fees struct {
	// net_of_provider_fee or gross
	CommissionBase string `env:"COMMISSION_BASE" envDefault:"net_of_provider_fee"`
	// overrides as PROVIDER:rate:fixed, e.g. CARD_NETWORK:0.02:0
	ProviderProfiles []string `env:"PROVIDER_PROFILES" envSeparator:","`
	// overrides as TIER:rate, e.g. PREMIUM:0.08
	PlatformRates []string `env:"PLATFORM_RATES" envSeparator:","`
}

// minimums in minor units
type Limits struct {
	Subscription    int64 `env:"SUBSCRIPTION" envDefault:"1000"`
	Tip             int64 `env:"TIP" envDefault:"100"`
	ProductPurchase int64 `env:"PRODUCT_PURCHASE" envDefault:"500"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
	// with no secret, every request runs as DemoUserID
	DemoUserID string `env:"DEMO_USER_ID" envDefault:"demo-user-001"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type UPI struct {
	BaseApiURL string        `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID      string        `env:"KEY_ID"`
	KeySecret  string        `env:"KEY_SECRET"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	BrandName    string `env:"BRAND_NAME" envDefault:"Creator Payments"`
}

type FormWallet struct {
	ActionURL   string `env:"ACTION_URL" envDefault:"https://rc-epay.esewa.com.np/api/epay/main/v2/form"`
	ProductCode string `env:"PRODUCT_CODE" envDefault:"EPAYTEST"`
	SecretKey   string `env:"SECRET_KEY"`
}

type BankTransfer struct {
	AccountName   string `env:"ACCOUNT_NAME"`
	AccountNumber string `env:"ACCOUNT_NUMBER"`
	BankName      string `env:"BANK_NAME"`
	RoutingCode   string `env:"ROUTING_CODE"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Idempotency.TTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive")
	}
	// a claim that lapses mid-dispatch lets a second process call the provider
	if c.Idempotency.ClaimTTL <= c.Idempotency.DispatchTimeout {
		return fmt.Errorf("IDEMPOTENCY_CLAIM_TTL (%s) must exceed IDEMPOTENCY_DISPATCH_TIMEOUT (%s)",
			c.Idempotency.ClaimTTL, c.Idempotency.DispatchTimeout)
	}
	if c.Limits.Tip <= 0 || c.Limits.Subscription <= 0 || c.Limits.ProductPurchase <= 0 {
		return fmt.Errorf("minimum amounts must be positive")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment.Name == "production"
}
