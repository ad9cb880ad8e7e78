package nacos

import "context"

// Authenticator é a parte do Client usada por MaybeLogin.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (Token, error)
}

// MaybeLogin faz o login apenas quando há usuário configurado. Sem usuário
// retorna o token vazio sem nenhuma chamada de rede.
func MaybeLogin(ctx context.Context, auth Authenticator, username, password string) (Token, error) {
	if username == "" {
		return "", nil
	}
	return auth.Login(ctx, username, password)
}
