package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
)

// DefaultRecentNotifications is how many notifications the recent list keeps.
const DefaultRecentNotifications = 50

// Store keeps settings, permission grants and notifications in Redis
type Store struct {
	client    *redis.Client
	namespace string
	recentMax int64
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, namespace string, recentMax int) *Store {
	if recentMax <= 0 {
		recentMax = DefaultRecentNotifications
	}
	return &Store{client: client, namespace: namespace, recentMax: int64(recentMax)}
}

func (s *Store) key(k string) string { return NamespacedKey(s.namespace, k) }

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load reads the settings hash. A missing hash yields zero settings.
func (s *Store) Load(ctx context.Context) (domain.Settings, error) {
	fields, err := s.client.HGetAll(ctx, s.key(KeySettings)).Result()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return domain.Settings{APIURL: fields[fieldAPIURL], APIKey: fields[fieldAPIKey]}, nil
}

// Save writes both settings fields at once
func (s *Store) Save(ctx context.Context, settings domain.Settings) error {
	err := s.client.HSet(ctx, s.key(KeySettings),
		fieldAPIURL, settings.APIURL,
		fieldAPIKey, settings.APIKey,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// AddGrant adds a host pattern to the permission set
func (s *Store) AddGrant(ctx context.Context, pattern string) error {
	if err := s.client.SAdd(ctx, s.key(KeyPermissions), pattern).Err(); err != nil {
		return fmt.Errorf("failed to add grant: %w", err)
	}
	return nil
}

// RemoveGrant removes a host pattern from the permission set
func (s *Store) RemoveGrant(ctx context.Context, pattern string) error {
	if err := s.client.SRem(ctx, s.key(KeyPermissions), pattern).Err(); err != nil {
		return fmt.Errorf("failed to remove grant: %w", err)
	}
	return nil
}

// Grants lists the permission set
func (s *Store) Grants(ctx context.Context) ([]string, error) {
	patterns, err := s.client.SMembers(ctx, s.key(KeyPermissions)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	return patterns, nil
}

// Notify publishes n and pushes it onto the capped recent list
func (s *Store) Notify(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	recent := s.key(KeyRecentNotifications)
	pipe := s.client.Pipeline()
	pipe.Publish(ctx, s.key(ChannelNotifications), data)
	pipe.LPush(ctx, recent, data)
	pipe.LTrim(ctx, recent, 0, s.recentMax-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Recent returns up to limit notifications, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Notification, error) {
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	raw, err := s.client.LRange(ctx, s.key(KeyRecentNotifications), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	out := make([]domain.Notification, 0, len(raw))
	for _, item := range raw {
		var n domain.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			// Skip entries that couldn't be decoded
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Subscribe returns a subscription to the notification channel. The caller
// closes it.
func (s *Store) Subscribe(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, s.key(ChannelNotifications))
}

// Follow delivers every notification published on the channel to handle
// until ctx is done. Undecodable messages are skipped.
func (s *Store) Follow(ctx context.Context, handle func(domain.Notification)) error {
	sub := s.Subscribe(ctx)
	defer sub.Close()

	// Wait for the subscription to be confirmed so nothing published after
	// Follow returns control is missed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to notifications: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue
			}
			handle(n)
		}
	}
}
