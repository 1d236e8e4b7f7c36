package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const kubernetesTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

// ErrNotFound is returned when a KV secret or field does not exist.
var ErrNotFound = errors.New("vault: secret not found")

// ErrExists is returned by a check-and-set write that would overwrite a secret.
var ErrExists = errors.New("vault: secret already exists")

// VaultClient talks to the KV v2 and transit engines.
type VaultClient struct {
	addr    string
	kvMount string
	token   string
	http    *resty.Client
}

type Options struct {
	Addr    string
	KVMount string
	// Token is used as is when set, otherwise the client logs in with Role.
	Token string
	Role  string
	// TokenFile overrides the service account token location, used by tests.
	TokenFile string
}

// New creates a Vault client, logging in through the kubernetes auth method when no token is given.
func New(ctx context.Context, opts Options) (*VaultClient, error) {
	vc := &VaultClient{
		addr:    strings.TrimRight(opts.Addr, "/"),
		kvMount: opts.KVMount,
		token:   opts.Token,
		http:    resty.New().SetHeader("Content-Type", "application/json"),
	}
	if vc.kvMount == "" {
		vc.kvMount = "secret"
	}

	if vc.token == "" {
		tokenFile := opts.TokenFile
		if tokenFile == "" {
			tokenFile = kubernetesTokenPath
		}
		token, err := vc.login(ctx, tokenFile, opts.Role)
		if err != nil {
			return nil, err
		}
		vc.token = token
	}
	return vc, nil
}

// login performs login to Vault using Kubernetes authentication
func (vc *VaultClient) login(ctx context.Context, tokenFile, role string) (string, error) {
	k8sToken, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", errors.Wrap(err, "failed to read service account token")
	}

	var result struct {
		Auth *struct {
			ClientToken string `json:"client_token"`
		} `json:"auth"`
		Errors []string `json:"errors"`
	}
	resp, err := vc.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"jwt":  string(k8sToken),
			"role": role,
		}).
		SetResult(&result).
		SetError(&result).
		Post(vc.addr + "/v1/auth/kubernetes/login")
	if err != nil {
		return "", errors.Wrap(err, "vault login")
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("vault authentication failed with status %d: %v", resp.StatusCode(), result.Errors)
	}
	if result.Auth == nil || result.Auth.ClientToken == "" {
		return "", errors.New("vault returned empty client_token")
	}
	return result.Auth.ClientToken, nil
}

func (vc *VaultClient) request(ctx context.Context) *resty.Request {
	return vc.http.R().SetContext(ctx).SetHeader("X-Vault-Token", vc.token)
}

// GetKV reads one field of a KV v2 secret.
func (vc *VaultClient) GetKV(ctx context.Context, path, field string) (string, error) {
	var result struct {
		Data struct {
			Data map[string]interface{} `json:"data"`
		} `json:"data"`
		Errors []string `json:"errors"`
	}
	resp, err := vc.request(ctx).
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("%s/v1/%s/data/%s", vc.addr, vc.kvMount, strings.TrimLeft(path, "/")))
	if err != nil {
		return "", errors.Wrap(err, "vault KV get")
	}

	if resp.StatusCode() == 404 {
		return "", ErrNotFound
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("vault KV get failed with status %d: %v", resp.StatusCode(), result.Errors)
	}

	v, ok := result.Data.Data[field]
	if !ok {
		return "", ErrNotFound
	}
	secret, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("secret value for key '%s' is not a string", field)
	}
	return secret, nil
}

// PutKV writes a new KV v2 secret. With createOnly the write fails with ErrExists
// instead of adding a new version to an existing secret.
func (vc *VaultClient) PutKV(ctx context.Context, path string, data map[string]string, createOnly bool) error {
	body := map[string]interface{}{"data": data}
	if createOnly {
		body["options"] = map[string]int{"cas": 0}
	}

	var result struct {
		Errors []string `json:"errors"`
	}
	resp, err := vc.request(ctx).
		SetBody(body).
		SetError(&result).
		Post(fmt.Sprintf("%s/v1/%s/data/%s", vc.addr, vc.kvMount, strings.TrimLeft(path, "/")))
	if err != nil {
		return errors.Wrap(err, "vault KV put")
	}

	if resp.StatusCode() == 400 && createOnly && containsCheckAndSet(result.Errors) {
		return ErrExists
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 204 {
		return fmt.Errorf("vault KV put failed with status %d: %v", resp.StatusCode(), result.Errors)
	}
	return nil
}

// TransitSign signs input with a transit key and returns the raw signature bytes.
func (vc *VaultClient) TransitSign(ctx context.Context, keyName string, input []byte) ([]byte, error) {
	var result struct {
		Data struct {
			Signature string `json:"signature"`
		} `json:"data"`
		Errors []string `json:"errors"`
	}
	resp, err := vc.request(ctx).
		SetBody(map[string]string{"input": base64.StdEncoding.EncodeToString(input)}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("%s/v1/transit/sign/%s", vc.addr, keyName))
	if err != nil {
		return nil, errors.Wrap(err, "vault transit sign")
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("vault sign failed with status %d: %v", resp.StatusCode(), result.Errors)
	}

	// vault:v<version>:<base64>
	parts := strings.SplitN(result.Data.Signature, ":", 3)
	if len(parts) != 3 || parts[0] != "vault" {
		return nil, fmt.Errorf("unexpected vault signature format %q", result.Data.Signature)
	}
	sig, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64 signature")
	}
	return sig, nil
}

// TransitPublicKey returns the latest version of a transit key's public half.
func (vc *VaultClient) TransitPublicKey(ctx context.Context, keyName string) ([]byte, error) {
	var result struct {
		Data struct {
			LatestVersion int `json:"latest_version"`
			Keys          map[string]struct {
				PublicKey string `json:"public_key"`
			} `json:"keys"`
		} `json:"data"`
		Errors []string `json:"errors"`
	}
	resp, err := vc.request(ctx).
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("%s/v1/transit/keys/%s", vc.addr, keyName))
	if err != nil {
		return nil, errors.Wrap(err, "vault transit key")
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("vault key read failed with status %d: %v", resp.StatusCode(), result.Errors)
	}

	key, ok := result.Data.Keys[strconv.Itoa(result.Data.LatestVersion)]
	if !ok || key.PublicKey == "" {
		return nil, fmt.Errorf("transit key %s has no public key", keyName)
	}
	pub, err := base64.StdEncoding.DecodeString(key.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64 public key")
	}
	return pub, nil
}

func containsCheckAndSet(msgs []string) bool {
	for _, m := range msgs {
		if strings.Contains(m, "check-and-set") {
			return true
		}
	}
	return false
}
