package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/yanickxia/nacos-perf-utils/internal/clients"
)

const (
	DefaultStartPort         uint32 = 10000
	DefaultInstanceNum       uint32 = 1
	DefaultHeartbeatInterval        = 5 * time.Second
	DefaultRequestTimeout           = clients.DefaultRequestTimeout
)

// Config é a configuração de uma execução. É validada uma vez, antes de
// qualquer chamada de rede, e não muda mais depois disso.
type Config struct {
	ServerAddr  string
	StartPort   uint32
	InstanceNum uint32
	Username    string
	Password    string
	Namespace   string
	GroupName   string

	HeartbeatInterval time.Duration
	RequestTimeout    time.Duration

	// SkipUnregistered exclui dos heartbeats as instâncias cujo registro falhou.
	SkipUnregistered bool

	MetricsAddr string
	RedisAddr   string
}

// ConfigError indica configuração inválida. É sempre fatal.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuração inválida: %s: %s", e.Field, e.Reason)
}

// Default retorna a configuração com os valores padrão da linha de comando.
func Default() Config {
	return Config{
		StartPort:         DefaultStartPort,
		InstanceNum:       DefaultInstanceNum,
		HeartbeatInterval: DefaultHeartbeatInterval,
		RequestTimeout:    DefaultRequestTimeout,
	}
}

// HasCredentials informa se o login deve ser feito.
func (c Config) HasCredentials() bool {
	return c.Username != ""
}

// Validate verifica a configuração e normaliza ServerAddr (sem barra final).
// InstanceNum igual a zero é aceito: a execução apenas fica ociosa.
func (c *Config) Validate() error {
	addr := strings.TrimSpace(c.ServerAddr)
	if addr == "" {
		return &ConfigError{Field: "server", Reason: "endereço do nacos é obrigatório"}
	}
	u, err := url.Parse(addr)
	if err != nil {
		return &ConfigError{Field: "server", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "server", Reason: fmt.Sprintf("esquema %q não suportado, use http ou https", u.Scheme)}
	}
	if u.Host == "" {
		return &ConfigError{Field: "server", Reason: "host ausente"}
	}
	if u.Path != "" && u.Path != "/" {
		return &ConfigError{Field: "server", Reason: "informe apenas a origem, sem caminho"}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return &ConfigError{Field: "server", Reason: "informe apenas a origem, sem query ou fragmento"}
	}
	c.ServerAddr = strings.TrimRight(addr, "/")

	if c.StartPort == 0 {
		return &ConfigError{Field: "start-port", Reason: "deve ser maior que 0"}
	}
	if uint64(c.StartPort)+uint64(c.InstanceNum) > math.MaxUint16 {
		return &ConfigError{
			Field:  "instance-number",
			Reason: fmt.Sprintf("porta final %d excede %d", uint64(c.StartPort)+uint64(c.InstanceNum), math.MaxUint16),
		}
	}

	if (c.Username == "") != (c.Password == "") {
		return &ConfigError{Field: "username/password", Reason: "usuário e senha devem ser informados juntos"}
	}

	if c.HeartbeatInterval <= 0 {
		return &ConfigError{Field: "interval", Reason: "deve ser maior que 0"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: "deve ser maior que 0"}
	}
	return nil
}
