package nacos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yanickxia/nacos-perf-utils/internal/clients"
)

const (
	LoginPath     = "/nacos/v1/auth/login"
	InstancePath  = "/nacos/v1/ns/instance"
	HeartbeatPath = "/nacos/v1/ns/instance/beat"

	// MockIP é o ip anunciado por todas as instâncias mock.
	MockIP = "localhost"

	maxErrorBody = 512
)

// Token é o accessToken devolvido pelo login. Vazio significa sem autenticação.
type Token string

// Client fala com a API HTTP v1 do nacos. Não guarda estado entre chamadas e
// pode ser usado por várias goroutines ao mesmo tempo.
type Client struct {
	serverAddr string
	namespace  string
	groupName  string
	httpClient clients.HTTPClient
}

type ClientOption func(*Client)

// WithCustomHTTPClient troca o cliente HTTP padrão.
func WithCustomHTTPClient(client clients.HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithNamespace envia namespaceId em registro e heartbeat.
func WithNamespace(namespace string) ClientOption {
	return func(c *Client) {
		c.namespace = namespace
	}
}

// WithGroupName envia groupName em registro e heartbeat.
func WithGroupName(groupName string) ClientOption {
	return func(c *Client) {
		c.groupName = groupName
	}
}

// NewClient cria o cliente para o nacos em serverAddr (ex.: http://127.0.0.1:8848).
// Sem WithCustomHTTPClient usa clients.NewHTTPClient com o timeout padrão.
func NewClient(serverAddr string, opts ...ClientOption) *Client {
	c := &Client{
		serverAddr: strings.TrimRight(serverAddr, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = clients.NewHTTPClient(clients.DefaultRequestTimeout)
	}
	return c
}

func (c *Client) ServerAddr() string {
	return c.serverAddr
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenTTL    int64  `json:"tokenTtl"`
	GlobalAdmin bool   `json:"globalAdmin"`
}

// Login troca usuário e senha por um accessToken.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverAddr+LoginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Inner: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Inner: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", &AuthError{StatusCode: resp.StatusCode, Inner: err}
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &AuthError{StatusCode: resp.StatusCode, Inner: fmt.Errorf("erro ao decodificar resposta do login: %w", err)}
	}
	if body.AccessToken == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Inner: errors.New("resposta do login sem accessToken")}
	}
	return Token(body.AccessToken), nil
}

// RegisterInstance cria uma instância efêmera serviceName em localhost:port.
func (c *Client) RegisterInstance(ctx context.Context, port uint32, serviceName string, token Token) error {
	query := c.baseQuery(serviceName, token)
	query.Set("port", strconv.FormatUint(uint64(port), 10))
	query.Set("ip", MockIP)
	query.Set("ephemeral", "true")

	statusCode, err := c.send(ctx, http.MethodPost, InstancePath, query)
	if err != nil {
		return &RegistrationError{Port: port, ServiceName: serviceName, StatusCode: statusCode, Inner: err}
	}
	return nil
}

// Heartbeat envia o beat de uma instância. O beat vai como JSON dentro da query.
func (c *Client) Heartbeat(ctx context.Context, port uint32, serviceName string, token Token) error {
	beat, err := BeatPayload(port, serviceName)
	if err != nil {
		return &HeartbeatError{Port: port, ServiceName: serviceName, Inner: err}
	}
	query := c.baseQuery(serviceName, token)
	query.Set("beat", beat)

	statusCode, err := c.send(ctx, http.MethodPut, HeartbeatPath, query)
	if err != nil {
		return &HeartbeatError{Port: port, ServiceName: serviceName, StatusCode: statusCode, Inner: err}
	}
	return nil
}

type beatInfo struct {
	Port        uint32 `json:"port"`
	IP          string `json:"ip"`
	ServiceName string `json:"serviceName"`
}

var marshalFunc = json.Marshal

// BeatPayload monta {"port":<port>,"ip":"localhost","serviceName":"<serviceName>"}.
func BeatPayload(port uint32, serviceName string) (string, error) {
	data, err := marshalFunc(beatInfo{Port: port, IP: MockIP, ServiceName: serviceName})
	if err != nil {
		return "", fmt.Errorf("erro ao codificar beat: %w", err)
	}
	return string(data), nil
}

func (c *Client) baseQuery(serviceName string, token Token) url.Values {
	query := url.Values{}
	query.Set("serviceName", serviceName)
	if token != "" {
		query.Set("accessToken", string(token))
	}
	if c.namespace != "" {
		query.Set("namespaceId", c.namespace)
	}
	if c.groupName != "" {
		query.Set("groupName", c.groupName)
	}
	return query
}

// send faz a chamada e devolve o status recebido (0 quando não houve resposta).
func (c *Client) send(ctx context.Context, method, path string, query url.Values) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.serverAddr+path+"?"+query.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return resp.StatusCode, err
	}
	// esvazia o corpo para a conexão voltar ao pool
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	status := resp.Status
	if status == "" {
		status = strconv.Itoa(resp.StatusCode)
	}
	return &StatusError{Status: status, Body: strings.TrimSpace(string(body))}
}
