package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/forum-relay/internal/model"
)

// mysqlDupEntry is the MySQL error number for a unique key violation.
const mysqlDupEntry = 1062

// UserRecordRepo provides data access to the user_records table. It is
// the single writer-of-record for topic assignment and the ban/archive
// flags; the Redis mirror in internal/cache is never authoritative.
// All timestamp fields are stored in UTC.
type UserRecordRepo struct {
    db *sql.DB
}

// NewUserRecordRepo returns a new UserRecordRepo bound to the provided database.
func NewUserRecordRepo(db *sql.DB) *UserRecordRepo { return &UserRecordRepo{db: db} }

// DB exposes the underlying handle so callers can manage transactions
// or pass the pool to other components during wiring.
func (r *UserRecordRepo) DB() *sql.DB { return r.db }

// GetByUserID returns the record for the given user id, or
// ErrRecordNotFound when the user has never been seen.
func (r *UserRecordRepo) GetByUserID(ctx context.Context, userID int64) (*model.UserRecord, error) {
    const q = `SELECT user_id, topic_id, banned, archived, created_at
               FROM user_records WHERE user_id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, userID))
}

// GetByTopicID returns the record owning the given topic id, or
// ErrRecordNotFound for an unknown or foreign topic.
func (r *UserRecordRepo) GetByTopicID(ctx context.Context, topicID int64) (*model.UserRecord, error) {
    const q = `SELECT user_id, topic_id, banned, archived, created_at
               FROM user_records WHERE topic_id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, topicID))
}

// Create inserts a fresh record for the user with no topic assignment.
// It is idempotent: when the record already exists it is returned
// unchanged. The created_at column is populated by the database.
func (r *UserRecordRepo) Create(ctx context.Context, userID int64) (*model.UserRecord, error) {
    const ins = `INSERT INTO user_records (user_id) VALUES (?)
                 ON DUPLICATE KEY UPDATE user_id = user_id`
    if _, err := r.db.ExecContext(ctx, ins, userID); err != nil {
        return nil, err
    }
    // Read back so callers always observe the durable row, whether this
    // call created it or a concurrent one did.
    return r.GetByUserID(ctx, userID)
}

// SetTopic assigns a topic to a user. The assignment happens at most
// once: a record that already carries a topic id yields
// ErrTopicAssigned, and a topic id already bound to another user yields
// ErrTopicTaken via the unique key on topic_id.
func (r *UserRecordRepo) SetTopic(ctx context.Context, userID, topicID int64) error {
    const q = `UPDATE user_records SET topic_id = ? WHERE user_id = ? AND topic_id IS NULL`
    res, err := r.db.ExecContext(ctx, q, topicID, userID)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == mysqlDupEntry {
            return ErrTopicTaken
        }
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // Either the record is missing or a topic is already assigned;
        // re-read to report the precise condition.
        rec, gerr := r.GetByUserID(ctx, userID)
        if gerr != nil {
            return gerr
        }
        if rec.HasTopic() {
            if rec.TopicID == topicID {
                return nil // same assignment, treat as settled
            }
            return ErrTopicAssigned
        }
        return ErrRecordNotFound
    }
    return nil
}

// SetBanned updates the ban flag for a user.
func (r *UserRecordRepo) SetBanned(ctx context.Context, userID int64, banned bool) error {
    return r.setFlag(ctx, "banned", userID, banned)
}

// SetArchived updates the archive flag for a user.
func (r *UserRecordRepo) SetArchived(ctx context.Context, userID int64, archived bool) error {
    return r.setFlag(ctx, "archived", userID, archived)
}

func (r *UserRecordRepo) setFlag(ctx context.Context, column string, userID int64, v bool) error {
    // column is one of the two fixed flag names above, never user input.
    q := `UPDATE user_records SET ` + column + ` = ? WHERE user_id = ?`
    res, err := r.db.ExecContext(ctx, q, v, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // RowsAffected is zero both for a missing row and for a no-op
        // update to the current value, so distinguish with a read.
        if _, gerr := r.GetByUserID(ctx, userID); gerr != nil {
            return gerr
        }
    }
    return nil
}

func (r *UserRecordRepo) scanOne(row *sql.Row) (*model.UserRecord, error) {
    var rec model.UserRecord
    var topicID sql.NullInt64
    err := row.Scan(&rec.UserID, &topicID, &rec.Banned, &rec.Archived, &rec.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrRecordNotFound
    }
    if err != nil {
        return nil, err
    }
    if topicID.Valid {
        rec.TopicID = topicID.Int64
    }
    return &rec, nil
}
