package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration envuelve time.Duration para aceptar valores como "15m" o "720h" en YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" || raw == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std retorna el time.Duration subyacente.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Cache struct {
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Storage struct {
		DSN string `yaml:"dsn"`
	} `yaml:"storage"`

	Token struct {
		// Tipo reportado en la respuesta ("Bearer").
		Type   string `yaml:"type"`
		Access struct {
			Size int      `yaml:"size"` // bytes aleatorios por token
			TTL  Duration `yaml:"ttl"`  // 0 = sin expiración
		} `yaml:"access"`
		Refresh struct {
			Size int      `yaml:"size"`
			TTL  Duration `yaml:"ttl"`
		} `yaml:"refresh"`
	} `yaml:"token"`

	Authorization struct {
		Size int      `yaml:"size"`
		TTL  Duration `yaml:"ttl"`
	} `yaml:"authorization"`

	Verification struct {
		Size int      `yaml:"size"`
		TTL  Duration `yaml:"ttl"`
	} `yaml:"verification"`

	Rate struct {
		Enabled bool     `yaml:"enabled"`
		Max     int      `yaml:"max"`
		Window  Duration `yaml:"window"`
	} `yaml:"rate"`

	TOTP struct {
		Issuer   string `yaml:"issuer"`
		Digits   int    `yaml:"digits"`
		Interval int    `yaml:"interval"` // segundos
		Skew     int    `yaml:"skew"`     // pasos de tolerancia hacia cada lado
	} `yaml:"totp"`

	Hash struct {
		Memory      uint32 `yaml:"memory"` // KiB
		Time        uint32 `yaml:"time"`
		Parallelism uint8  `yaml:"parallelism"`
		KeyLen      uint32 `yaml:"key_len"`
	} `yaml:"hash"`

	Email struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"email"`
}

// Load lee el YAML de path, aplica defaults y overrides de entorno.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv permite sobrescribir los valores sensibles sin tocar el YAML.
func (c *Config) applyEnv() {
	if v := os.Getenv("CADENZA_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CADENZA_REDIS_ADDR"); v != "" {
		c.Cache.Kind = "redis"
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CADENZA_REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("CADENZA_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Redis.DB = n
		}
	}
	if v := os.Getenv("CADENZA_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("CADENZA_SMTP_PASSWORD"); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "cadenza"
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Token.Type == "" {
		c.Token.Type = "Bearer"
	}
	if c.Token.Access.Size == 0 {
		c.Token.Access.Size = 32
	}
	if c.Token.Access.TTL == 0 {
		c.Token.Access.TTL = Duration(time.Hour)
	}
	if c.Token.Refresh.Size == 0 {
		c.Token.Refresh.Size = 32
	}
	// Refresh.TTL 0 es válido: deployments pueden deshabilitar la expiración.
	if c.Authorization.Size == 0 {
		c.Authorization.Size = 32
	}
	if c.Authorization.TTL == 0 {
		c.Authorization.TTL = Duration(10 * time.Minute)
	}
	if c.Verification.Size == 0 {
		c.Verification.Size = 16
	}
	if c.Verification.TTL == 0 {
		c.Verification.TTL = Duration(24 * time.Hour)
	}
	if c.Rate.Max == 0 {
		c.Rate.Max = 30
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = Duration(time.Minute)
	}
	if c.TOTP.Issuer == "" {
		c.TOTP.Issuer = c.App.Name
	}
	if c.TOTP.Digits == 0 {
		c.TOTP.Digits = 6
	}
	if c.TOTP.Interval == 0 {
		c.TOTP.Interval = 30
	}
	if c.TOTP.Skew == 0 {
		c.TOTP.Skew = 1
	}
	if c.Hash.Memory == 0 {
		c.Hash.Memory = 64 * 1024
	}
	if c.Hash.Time == 0 {
		c.Hash.Time = 3
	}
	if c.Hash.Parallelism == 0 {
		c.Hash.Parallelism = 1
	}
	if c.Hash.KeyLen == 0 {
		c.Hash.KeyLen = 32
	}
}
