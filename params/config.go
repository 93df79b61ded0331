package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Settlement struct {
	CashToken     string
	SecurityToken string
	FeeRecipient  string
	VenueURL      string        // settlement venue endpoint; empty disables submission
	Expiry        time.Duration // how long packaged trades stay fillable
	ArchivePath   string
}

type API struct {
	Addr           string
	AllowedOrigins []string
}

type Config struct {
	ChainID    int64
	IngestPath string // order batch file replayed at startup; empty skips
	LogFile    string
	Settlement Settlement
	API        API
}

func Default() Config {
	return Config{
		ChainID: 1337,
		LogFile: "data/matchbook.log",
		Settlement: Settlement{
			CashToken:     "0x1234567890123456789012345678901234567890",
			SecurityToken: "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd",
			FeeRecipient:  "0x3C44CdddB6a900fa2b585dd299e03d12FA4293BC",
			Expiry:        time.Hour,
			ArchivePath:   "data/trades.db",
		},
		API: API{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ChainID = id
		}
	}
	if v := os.Getenv("INGEST_FILE"); v != "" {
		cfg.IngestPath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if v := os.Getenv("CASH_TOKEN"); v != "" {
		cfg.Settlement.CashToken = v
	}
	if v := os.Getenv("SECURITY_TOKEN"); v != "" {
		cfg.Settlement.SecurityToken = v
	}
	if v := os.Getenv("FEE_RECIPIENT"); v != "" {
		cfg.Settlement.FeeRecipient = v
	}
	if v := os.Getenv("SETTLEMENT_VENUE_URL"); v != "" {
		cfg.Settlement.VenueURL = v
	}
	if v := os.Getenv("SETTLEMENT_EXPIRY_S"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Settlement.Expiry = time.Duration(s) * time.Second
		}
	}
	if v := os.Getenv("TRADE_ARCHIVE_PATH"); v != "" {
		cfg.Settlement.ArchivePath = v
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("API_ALLOWED_ORIGINS"); v != "" {
		cfg.API.AllowedOrigins = strings.Split(v, ",")
	}

	return cfg
}
