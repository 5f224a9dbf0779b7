package env

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/domain/entity"
)

var _ output.ConfigPort = (*EnvService)(nil)

const (
	KeyUsername = "EPBM_USERNAME"
	KeyPassword = "EPBM_PASSWORD"
	KeyAppEnv   = "APP_ENV"
)

// EnvService reads settings from the process environment after loading
// optional dotenv files. Values already set in the environment win over .env;
// .env.<APP_ENV> overrides both.
type EnvService struct {
	loaded []string
}

func NewEnvService() *EnvService {
	appEnv := os.Getenv(KeyAppEnv)
	if appEnv == "" {
		appEnv = "dev"
	}
	return Load(".env", fmt.Sprintf(".env.%s", appEnv))
}

// Load reads base with godotenv.Load and every override with godotenv.Overload.
// Missing files are skipped.
func Load(base string, overrides ...string) *EnvService {
	e := &EnvService{}
	if err := godotenv.Load(base); err == nil {
		e.loaded = append(e.loaded, base)
	}
	for _, f := range overrides {
		if err := godotenv.Overload(f); err == nil {
			e.loaded = append(e.loaded, f)
		}
	}
	return e
}

// Loaded lists the dotenv files that were found and applied.
func (e *EnvService) Loaded() []string {
	return append([]string(nil), e.loaded...)
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

func (e *EnvService) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (e *EnvService) GetWithDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Credentials returns the portal login taken from EPBM_USERNAME and EPBM_PASSWORD.
func Credentials(cfg output.ConfigPort) entity.Credentials {
	return entity.Credentials{
		Username: cfg.Get(KeyUsername),
		Password: cfg.Get(KeyPassword),
	}
}
