package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

type ValkeyClient struct {
	client valkey.Client
}

func NewValkey(addr, password string, db int) (*ValkeyClient, error) {
	if addr == "" {
		return nil, errors.New("valkey address is required")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{addr},
		Password:          password,
		SelectDB:          db,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		DisableCache:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	return &ValkeyClient{client: client}, nil
}

// Get reports a miss as (nil, false, nil).
func (v *ValkeyClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp := v.client.Do(ctx, v.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if errors.Is(err, valkey.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("valkey get: %w", err)
	}
	payload, err := resp.AsBytes()
	if err != nil {
		return nil, false, fmt.Errorf("valkey get bytes: %w", err)
	}
	return payload, true, nil
}

func (v *ValkeyClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := v.client.B().Set().Key(key).Value(string(value)).Px(ttl).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

// RunScript evaluates a Lua script and decodes an integer array reply.
func (v *ValkeyClient) RunScript(ctx context.Context, script *valkey.Lua, keys, args []string) ([]int64, error) {
	return script.Exec(ctx, v.client, keys, args).AsIntSlice()
}

func (v *ValkeyClient) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

func (v *ValkeyClient) Close() error {
	v.client.Close()
	return nil
}
