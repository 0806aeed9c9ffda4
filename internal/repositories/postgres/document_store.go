package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// documentChannel carries "user_id/collection" payloads for every committed write.
const documentChannel = "user_documents"

const (
	minListenBackoff = 200 * time.Millisecond
	maxListenBackoff = 30 * time.Second
)

// listenerConn is the part of a pooled connection a subscription needs.
type listenerConn interface {
	querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

type pooledListener struct {
	*pgxpool.Conn
}

func (c pooledListener) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.Conn.Conn().WaitForNotification(ctx)
}

// DocumentStore keeps per-user documents in user_documents. Subscriptions hold one
// pooled connection each, LISTEN for write notifications and re-read the document.
// A subscription whose connection fails reconnects with backoff and re-reads the
// document, so no change is lost for longer than the outage.
type DocumentStore struct {
	pool    *pgxpool.Pool
	log     *zap.Logger
	acquire func(ctx context.Context) (listenerConn, error)

	minBackoff, maxBackoff time.Duration
}

func NewDocumentStore(pool *pgxpool.Pool, logger *zap.Logger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStore{
		pool: pool,
		log:  logger.Named("documents"),
		acquire: func(ctx context.Context) (listenerConn, error) {
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			return pooledListener{conn}, nil
		},
		minBackoff: minListenBackoff,
		maxBackoff: maxListenBackoff,
	}
}

func (s *DocumentStore) Put(ctx context.Context, ref models.DocumentRef, body []byte) (int64, error) {
	var rev int64
	err := ExecTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO user_documents (user_id, collection, body, revision, updated_at)
			VALUES ($1, $2, $3::jsonb, 1, now())
			ON CONFLICT (user_id, collection)
			DO UPDATE SET body = user_documents.body || excluded.body,
				revision = user_documents.revision + 1,
				updated_at = now()
			RETURNING revision
		`, ref.UserID, ref.Collection, string(body)).Scan(&rev)
		if err != nil {
			return fmt.Errorf("put %s: %w", ref, err)
		}
		// delivered on commit
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, documentChannel, notifyKey(ref)); err != nil {
			return fmt.Errorf("notify %s: %w", ref, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rev, nil
}

func (s *DocumentStore) Get(ctx context.Context, ref models.DocumentRef) (repositories.Snapshot, error) {
	return readDocument(ctx, s.pool, ref)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func readDocument(ctx context.Context, q querier, ref models.DocumentRef) (repositories.Snapshot, error) {
	var (
		body []byte
		rev  int64
	)
	err := q.QueryRow(ctx,
		`SELECT body, revision FROM user_documents WHERE user_id = $1 AND collection = $2`,
		ref.UserID, ref.Collection,
	).Scan(&body, &rev)
	if errors.Is(err, pgx.ErrNoRows) {
		return repositories.Snapshot{}, nil
	}
	if err != nil {
		return repositories.Snapshot{}, fmt.Errorf("get %s: %w", ref, err)
	}
	return repositories.Snapshot{Body: body, Exists: true, Revision: rev}, nil
}

// Subscribe starts listening before the initial read, so no write between the two is
// missed. fn runs on the subscription's goroutine. Failures after Subscribe returns
// are retried until Unsubscribe.
func (s *DocumentStore) Subscribe(ctx context.Context, ref models.DocumentRef, fn func(repositories.Snapshot)) (repositories.Subscription, error) {
	conn, err := s.openListener(ctx)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go s.listen(subCtx, conn, ref, fn, sub.done)
	return sub, nil
}

func (s *DocumentStore) openListener(ctx context.Context) (listenerConn, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{documentChannel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}
	return conn, nil
}

func closeListener(conn listenerConn) {
	// UNLISTEN on a fresh context, the subscription one may already be cancelled
	_, _ = conn.Exec(context.Background(), "UNLISTEN *")
	conn.Release()
}

func (s *DocumentStore) listen(ctx context.Context, conn listenerConn, ref models.DocumentRef, fn func(repositories.Snapshot), done chan struct{}) {
	defer close(done)
	log := s.log.With(zap.Stringer("ref", ref))

	backoff := s.minBackoff
	for {
		err := s.follow(ctx, conn, ref, fn, func() { backoff = s.minBackoff })
		closeListener(conn)
		if ctx.Err() != nil {
			return
		}
		log.Warn("subscription interrupted", zap.Error(err), zap.Duration("retry_in", backoff))

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < s.maxBackoff {
				backoff *= 2
				if backoff > s.maxBackoff {
					backoff = s.maxBackoff
				}
			}
			conn, err = s.openListener(ctx)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			log.Warn("resubscribe failed", zap.Error(err), zap.Duration("retry_in", backoff))
		}
	}
}

// follow reads the document, delivers it, then re-reads and delivers after every
// notification for ref. It returns when the connection fails or ctx ends. healthy runs
// after each successful delivery.
func (s *DocumentStore) follow(ctx context.Context, conn listenerConn, ref models.DocumentRef, fn func(repositories.Snapshot), healthy func()) error {
	snap, err := readDocument(ctx, conn, ref)
	if err != nil {
		return err
	}
	fn(snap)
	healthy()

	key := notifyKey(ref)
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if n.Payload != key {
			continue
		}
		snap, err := readDocument(ctx, conn, ref)
		if err != nil {
			return err
		}
		fn(snap)
		healthy()
	}
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

func notifyKey(ref models.DocumentRef) string {
	return ref.UserID + "/" + ref.Collection
}
