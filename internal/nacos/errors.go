package nacos

import (
	"errors"
	"fmt"
)

var (
	ErrAuth         = errors.New("nacos: falha de autenticação")
	ErrRegistration = errors.New("nacos: falha no registro da instância")
	ErrHeartbeat    = errors.New("nacos: falha no heartbeat")
)

// AuthError é fatal para a execução: sem token nenhuma instância é registrada.
type AuthError struct {
	// StatusCode é zero quando nenhuma resposta foi recebida.
	StatusCode int
	Inner      error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: status %d: %v", ErrAuth, e.StatusCode, e.Inner)
	}
	return fmt.Sprintf("%v: %v", ErrAuth, e.Inner)
}

func (e *AuthError) Unwrap() []error { return []error{ErrAuth, e.Inner} }

// RegistrationError é logado e não interrompe a execução.
type RegistrationError struct {
	Port        uint32
	ServiceName string
	StatusCode  int
	Inner       error
}

func (e *RegistrationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v %s (porta %d): status %d: %v", ErrRegistration, e.ServiceName, e.Port, e.StatusCode, e.Inner)
	}
	return fmt.Sprintf("%v %s (porta %d): %v", ErrRegistration, e.ServiceName, e.Port, e.Inner)
}

func (e *RegistrationError) Unwrap() []error { return []error{ErrRegistration, e.Inner} }

// HeartbeatError é logado; o próximo tick segue normalmente.
type HeartbeatError struct {
	Port        uint32
	ServiceName string
	StatusCode  int
	Inner       error
}

func (e *HeartbeatError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v %s (porta %d): status %d: %v", ErrHeartbeat, e.ServiceName, e.Port, e.StatusCode, e.Inner)
	}
	return fmt.Sprintf("%v %s (porta %d): %v", ErrHeartbeat, e.ServiceName, e.Port, e.Inner)
}

func (e *HeartbeatError) Unwrap() []error { return []error{ErrHeartbeat, e.Inner} }

// StatusError descreve uma resposta fora da faixa 2xx.
type StatusError struct {
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "resposta inesperada: " + e.Status
	}
	return fmt.Sprintf("resposta inesperada: %s: %s", e.Status, e.Body)
}
