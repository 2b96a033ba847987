package auth

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a gorilla sessions.Store that keeps session values in Redis
// and only a signed session id in the cookie. Use it when several app
// instances must share sessions, or when logout has to revoke server-side.
type RedisStore struct {
	Client  redis.UniversalClient
	Codecs  []securecookie.Codec
	Options *sessions.Options
	Prefix  string
}

// defaultRedisTTL applies when Options.MaxAge is 0 (browser-session cookie).
const defaultRedisTTL = 24 * time.Hour

// NewRedisStore signs session ids with keyPairs (see securecookie.CodecsFromPairs).
func NewRedisStore(client redis.UniversalClient, prefix string, opts *sessions.Options, keyPairs ...[]byte) *RedisStore {
	if prefix == "" {
		prefix = "clinica:session:"
	}
	return &RedisStore{
		Client:  client,
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: opts,
		Prefix:  prefix,
	}
}

// Get returns the session cached in the request registry, loading it on first use.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie, or returns a fresh one.
// A cookie that fails signature checks yields a securecookie decode error;
// a missing Redis key (expired, revoked) yields a fresh session and no error.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		return session, err
	}

	data, err := s.Client.Get(r.Context(), s.Prefix+session.ID).Bytes()
	if errors.Is(err, redis.Nil) {
		session.ID = ""
		return session, nil
	}
	if err != nil {
		return session, fmt.Errorf("redis get session: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&session.Values); err != nil {
		return session, fmt.Errorf("decode session values: %w", err)
	}
	session.IsNew = false
	return session, nil
}

// Save writes values to Redis and the signed id to the cookie. MaxAge < 0
// deletes the Redis key and expires the cookie.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.Revoke(ctx, session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if ttl == 0 {
		ttl = defaultRedisTTL
	}
	if err := s.Client.Set(ctx, s.Prefix+session.ID, buf.Bytes(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Revoke deletes the server-side session id. A cookie still carrying it
// loads as a fresh session.
func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	if err := s.Client.Del(ctx, s.Prefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
