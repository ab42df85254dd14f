package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rubric-report-go/models"
	"rubric-report-go/report"
)

const (
	sessionPrefix = "session:" // String: session:{id} -> JSON session
	resultPrefix  = "result:"  // String: result:{hash} -> JSON fetch result
)

// ErrSessionNotFound is returned when a session id is unknown or expired
var ErrSessionNotFound = errors.New("session not found")

// RedisService keeps sessions and cached fetch results in Redis
type RedisService struct {
	Client     *redis.Client
	SessionTTL time.Duration
	ResultTTL  time.Duration
	logger     *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, sessionTTL, resultTTL time.Duration, logger *zap.Logger) *RedisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisService{
		Client:     client,
		SessionTTL: sessionTTL,
		ResultTTL:  resultTTL,
		logger:     logger,
	}
}

// Helper to generate session key
func getSessionKey(id string) string {
	return sessionPrefix + id
}

// Helper to generate result key
func getResultKey(hash string) string {
	return resultPrefix + hash
}

// ResultKey identifies the fetch result of an exact credential list
func ResultKey(creds []models.Credential) string {
	h := sha256.New()
	for _, c := range creds {
		h.Write([]byte(c.Token))
		h.Write([]byte{0})
		h.Write([]byte(c.URL))
		h.Write([]byte{0})
		h.Write([]byte(c.Institution))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// --- Session Operations ---

// NewSession creates and stores an empty, logged-out session
func (s *RedisService) NewSession(ctx context.Context) (*models.Session, error) {
	sess := &models.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SaveSession writes the session and refreshes its TTL
func (s *RedisService) SaveSession(ctx context.Context, sess *models.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := s.Client.Set(ctx, getSessionKey(sess.ID), data, s.SessionTTL).Err(); err != nil {
		s.logger.Error("save session", zap.String("session", sess.ID), zap.Error(err))
		return errors.Wrap(err, "failed to save session to Redis")
	}
	return nil
}

// GetSession loads a session by id
func (s *RedisService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	data, err := s.Client.Get(ctx, getSessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("get session", zap.String("session", id), zap.Error(err))
		return nil, errors.Wrap(err, "failed to get session from Redis")
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrapf(err, "decode session %s", id)
	}
	return &sess, nil
}

// DeleteSession removes a session; a missing one is not an error
func (s *RedisService) DeleteSession(ctx context.Context, id string) error {
	if err := s.Client.Del(ctx, getSessionKey(id)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session from Redis")
	}
	return nil
}

// --- Fetch Cache ---

// CacheResult stores a fetch result under key
func (s *RedisService) CacheResult(ctx context.Context, key string, res report.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "encode result")
	}
	if err := s.Client.Set(ctx, getResultKey(key), data, s.ResultTTL).Err(); err != nil {
		s.logger.Error("cache result", zap.String("key", key), zap.Error(err))
		return errors.Wrap(err, "failed to cache result in Redis")
	}
	s.logger.Debug("cached result", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// GetResult returns a cached fetch result; ok is false on a cache miss
func (s *RedisService) GetResult(ctx context.Context, key string) (res report.Result, ok bool, err error) {
	if key == "" {
		return res, false, nil
	}
	data, err := s.Client.Get(ctx, getResultKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return res, false, nil
		}
		return res, false, errors.Wrap(err, "failed to get result from Redis")
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, false, errors.Wrapf(err, "decode result %s", key)
	}
	return res, true, nil
}

// InvalidateResult drops a cached result so the next fetch goes upstream
func (s *RedisService) InvalidateResult(ctx context.Context, key string) error {
	if err := s.Client.Del(ctx, getResultKey(key)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete result from Redis")
	}
	return nil
}

// --- Utility ---

// NewRedisClient creates a client and checks the connection with PING
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "could not connect to Redis at %s", strings.TrimSpace(addr))
	}
	return rdb, nil
}
