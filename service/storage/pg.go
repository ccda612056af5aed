package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chatmodel "UzChat/module/chat/model"
	usermodel "UzChat/module/user/model"
	errs "UzChat/tools/errs"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
	id                varchar PRIMARY KEY,
	username          varchar UNIQUE NOT NULL,
	nickname          varchar NOT NULL,
	password          varchar,
	email             varchar,
	first_name        varchar,
	last_name         varchar,
	profile_image_url varchar,
	is_online         boolean NOT NULL DEFAULT false,
	last_seen         timestamptz DEFAULT now(),
	is_admin          boolean NOT NULL DEFAULT false,
	created_at        timestamptz NOT NULL DEFAULT now(),
	updated_at        timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chats (
	id         serial PRIMARY KEY,
	name       varchar,
	is_group   boolean NOT NULL DEFAULT false,
	created_by varchar REFERENCES users(id),
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_participants (
	id        serial PRIMARY KEY,
	chat_id   integer NOT NULL REFERENCES chats(id),
	user_id   varchar NOT NULL REFERENCES users(id),
	is_admin  boolean DEFAULT false,
	joined_at timestamptz NOT NULL DEFAULT now(),
	CONSTRAINT uniq_participant_idx UNIQUE (chat_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id         serial PRIMARY KEY,
	chat_id    integer NOT NULL REFERENCES chats(id),
	sender_id  varchar NOT NULL REFERENCES users(id),
	content    text NOT NULL,
	is_read    boolean NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS message_reads (
	id         serial PRIMARY KEY,
	message_id integer NOT NULL REFERENCES messages(id),
	user_id    varchar NOT NULL REFERENCES users(id),
	read_at    timestamptz NOT NULL DEFAULT now(),
	CONSTRAINT uniq_read_idx UNIQUE (message_id, user_id)
);
`

const userColumns = `id, username, nickname, password, email, first_name, last_name,
	profile_image_url, is_online, last_seen, is_admin, created_at, updated_at`

// PgStore implements Store on a pgx connection pool.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(ctx context.Context, dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.WrapMsg(err, "pgxpool new", "dsn", dsn)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "pg ping")
	}
	return &PgStore{pool: pool}, nil
}

func (s *PgStore) Close() { s.pool.Close() }

// EnsureSchema creates all tables if they do not exist yet.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaDDL)
	return errs.WrapMsg(err, "ensure schema")
}

// ===== users =====

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*usermodel.User, error) {
	var u usermodel.User
	var password, email, firstName, lastName, avatar *string
	err := row.Scan(&u.ID, &u.Username, &u.Nickname, &password, &email,
		&firstName, &lastName, &avatar, &u.IsOnline, &u.LastSeen,
		&u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if password != nil {
		u.Password = *password
	}
	if email != nil {
		u.Email = *email
	}
	if firstName != nil {
		u.FirstName = *firstName
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	if avatar != nil {
		u.ProfileImageURL = *avatar
	}
	return &u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PgStore) getUserWhere(ctx context.Context, where string, arg any) (*usermodel.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "get user")
	}
	return u, nil
}

func (s *PgStore) GetUser(ctx context.Context, id string) (*usermodel.User, error) {
	return s.getUserWhere(ctx, "id = $1", id)
}

func (s *PgStore) GetUserByUsername(ctx context.Context, username string) (*usermodel.User, error) {
	return s.getUserWhere(ctx, "username = $1", username)
}

func (s *PgStore) CreateUser(ctx context.Context, u *usermodel.User) (*usermodel.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, nickname, password, email, first_name, last_name, profile_image_url, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+userColumns,
		u.ID, u.Username, u.Nickname, nullable(u.Password), nullable(u.Email),
		nullable(u.FirstName), nullable(u.LastName), nullable(u.ProfileImageURL), u.IsAdmin)
	out, err := scanUser(row)
	if err != nil {
		return nil, errs.WrapMsg(err, "create user", "username", u.Username)
	}
	return out, nil
}

func (s *PgStore) UpsertUser(ctx context.Context, u *usermodel.User) (*usermodel.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, nickname, password, email, first_name, last_name, profile_image_url, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			nickname = EXCLUDED.nickname,
			password = COALESCE(EXCLUDED.password, users.password),
			email = COALESCE(EXCLUDED.email, users.email),
			first_name = COALESCE(EXCLUDED.first_name, users.first_name),
			last_name = COALESCE(EXCLUDED.last_name, users.last_name),
			profile_image_url = COALESCE(EXCLUDED.profile_image_url, users.profile_image_url),
			is_admin = EXCLUDED.is_admin,
			updated_at = now()
		RETURNING `+userColumns,
		u.ID, u.Username, u.Nickname, nullable(u.Password), nullable(u.Email),
		nullable(u.FirstName), nullable(u.LastName), nullable(u.ProfileImageURL), u.IsAdmin)
	out, err := scanUser(row)
	if err != nil {
		return nil, errs.WrapMsg(err, "upsert user", "id", u.ID)
	}
	return out, nil
}

func (s *PgStore) SearchUsers(ctx context.Context, query, currentUserID string) ([]*usermodel.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE (username ILIKE $1 OR nickname ILIKE $1) AND id <> $2
		LIMIT 20`,
		"%"+query+"%", currentUserID)
	if err != nil {
		return nil, errs.WrapMsg(err, "search users")
	}
	return collectUsers(rows)
}

func (s *PgStore) UpdateUserOnlineStatus(ctx context.Context, userID string, online bool) error {
	var err error
	if online {
		_, err = s.pool.Exec(ctx,
			`UPDATE users SET is_online = true, updated_at = now() WHERE id = $1`, userID)
	} else {
		_, err = s.pool.Exec(ctx,
			`UPDATE users SET is_online = false, last_seen = now(), updated_at = now() WHERE id = $1`, userID)
	}
	return errs.WrapMsg(err, "update online status", "user", userID)
}

func (s *PgStore) GetAllUsers(ctx context.Context) ([]*usermodel.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, errs.WrapMsg(err, "get all users")
	}
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*usermodel.User, error) {
	defer rows.Close()
	var out []*usermodel.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errs.WrapMsg(err, "scan user")
		}
		out = append(out, u)
	}
	return out, errs.Wrap(rows.Err())
}

func (s *PgStore) GetActiveUsersCount(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE is_online = true`).Scan(&n)
	return n, errs.WrapMsg(err, "active users count")
}

// ===== chats =====

func (s *PgStore) CreateChat(ctx context.Context, c *chatmodel.Chat) (*chatmodel.Chat, error) {
	var out chatmodel.Chat
	var name, createdBy *string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chats (name, is_group, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, name, is_group, created_by, created_at, updated_at`,
		nullable(c.Name), c.IsGroup, nullable(c.CreatedBy)).
		Scan(&out.ID, &name, &out.IsGroup, &createdBy, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, errs.WrapMsg(err, "create chat")
	}
	if name != nil {
		out.Name = *name
	}
	if createdBy != nil {
		out.CreatedBy = *createdBy
	}
	return &out, nil
}

func (s *PgStore) GetChat(ctx context.Context, id int64) (*chatmodel.Chat, error) {
	var out chatmodel.Chat
	var name, createdBy *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, is_group, created_by, created_at, updated_at
		FROM chats WHERE id = $1`, id).
		Scan(&out.ID, &name, &out.IsGroup, &createdBy, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "get chat", "id", id)
	}
	if name != nil {
		out.Name = *name
	}
	if createdBy != nil {
		out.CreatedBy = *createdBy
	}
	return &out, nil
}

func (s *PgStore) AddChatParticipant(ctx context.Context, chatID int64, userID string, isAdmin bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_participants (chat_id, user_id, is_admin)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, user_id) DO NOTHING`,
		chatID, userID, isAdmin)
	return errs.WrapMsg(err, "add participant", "chat", chatID, "user", userID)
}

func (s *PgStore) GetChatParticipants(ctx context.Context, chatID int64) ([]*usermodel.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+prefixedUserColumns("u")+`
		FROM chat_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.chat_id = $1`, chatID)
	if err != nil {
		return nil, errs.WrapMsg(err, "get participants", "chat", chatID)
	}
	return collectUsers(rows)
}

func prefixedUserColumns(alias string) string {
	return alias + `.id, ` + alias + `.username, ` + alias + `.nickname, ` + alias + `.password, ` +
		alias + `.email, ` + alias + `.first_name, ` + alias + `.last_name, ` +
		alias + `.profile_image_url, ` + alias + `.is_online, ` + alias + `.last_seen, ` +
		alias + `.is_admin, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func (s *PgStore) GetUserChats(ctx context.Context, userID string) ([]*chatmodel.ChatWithLastMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.is_group, c.created_by, c.created_at, c.updated_at
		FROM chat_participants p
		JOIN chats c ON c.id = p.chat_id
		WHERE p.user_id = $1`, userID)
	if err != nil {
		return nil, errs.WrapMsg(err, "get user chats", "user", userID)
	}
	var chats []*chatmodel.Chat
	for rows.Next() {
		var c chatmodel.Chat
		var name, createdBy *string
		if err := rows.Scan(&c.ID, &name, &c.IsGroup, &createdBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, errs.WrapMsg(err, "scan chat")
		}
		if name != nil {
			c.Name = *name
		}
		if createdBy != nil {
			c.CreatedBy = *createdBy
		}
		chats = append(chats, &c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err)
	}

	out := make([]*chatmodel.ChatWithLastMessage, 0, len(chats))
	for _, c := range chats {
		last, err := s.lastMessage(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		unread, err := s.GetUnreadCount(ctx, c.ID, userID)
		if err != nil {
			return nil, err
		}
		participants, err := s.GetChatParticipants(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &chatmodel.ChatWithLastMessage{
			Chat:         *c,
			LastMessage:  last,
			UnreadCount:  unread,
			Participants: participants,
		})
	}

	// most recently active first
	sort.Slice(out, func(i, j int) bool {
		return chatActivity(out[i]).After(chatActivity(out[j]))
	})
	return out, nil
}

func chatActivity(c *chatmodel.ChatWithLastMessage) time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.CreatedAt
}

func (s *PgStore) lastMessage(ctx context.Context, chatID int64) (*chatmodel.Message, error) {
	var m chatmodel.Message
	err := s.pool.QueryRow(ctx, `
		SELECT id, chat_id, sender_id, content, is_read, created_at
		FROM messages WHERE chat_id = $1
		ORDER BY created_at DESC LIMIT 1`, chatID).
		Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "last message", "chat", chatID)
	}
	return &m, nil
}

// ===== messages =====

func (s *PgStore) CreateMessage(ctx context.Context, chatID int64, senderID, content string) (*chatmodel.Message, error) {
	var m chatmodel.Message
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (chat_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, chat_id, sender_id, content, is_read, created_at`,
		chatID, senderID, content).
		Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return nil, errs.WrapMsg(err, "create message", "chat", chatID)
	}
	// keep the chat list ordering fresh
	if _, err := s.pool.Exec(ctx,
		`UPDATE chats SET updated_at = now() WHERE id = $1`, chatID); err != nil {
		return nil, errs.WrapMsg(err, "bump chat", "chat", chatID)
	}
	return &m, nil
}

func (s *PgStore) GetChatMessages(ctx context.Context, chatID int64) ([]*chatmodel.MessageWithSender, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, m.content, m.is_read, m.created_at, `+prefixedUserColumns("u")+`
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at ASC`, chatID)
	if err != nil {
		return nil, errs.WrapMsg(err, "get chat messages", "chat", chatID)
	}
	defer rows.Close()

	var out []*chatmodel.MessageWithSender
	for rows.Next() {
		var m chatmodel.Message
		var u usermodel.User
		var password, email, firstName, lastName, avatar *string
		err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt,
			&u.ID, &u.Username, &u.Nickname, &password, &email, &firstName, &lastName,
			&avatar, &u.IsOnline, &u.LastSeen, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, errs.WrapMsg(err, "scan message")
		}
		if email != nil {
			u.Email = *email
		}
		if firstName != nil {
			u.FirstName = *firstName
		}
		if lastName != nil {
			u.LastName = *lastName
		}
		if avatar != nil {
			u.ProfileImageURL = *avatar
		}
		out = append(out, &chatmodel.MessageWithSender{Message: m, Sender: &u})
	}
	return out, errs.Wrap(rows.Err())
}

func (s *PgStore) MarkMessageAsRead(ctx context.Context, messageID int64, userID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING`,
		messageID, userID)
	if err != nil {
		return errs.WrapMsg(err, "insert read", "message", messageID, "user", userID)
	}

	// flip is_read once every participant except the sender has read it
	var pending int
	err = s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM messages m
		JOIN chat_participants p ON p.chat_id = m.chat_id AND p.user_id <> m.sender_id
		WHERE m.id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = p.user_id
		  )`, messageID).Scan(&pending)
	if err != nil {
		return errs.WrapMsg(err, "count pending reads", "message", messageID)
	}
	if pending == 0 {
		_, err = s.pool.Exec(ctx,
			`UPDATE messages SET is_read = true WHERE id = $1`, messageID)
		if err != nil {
			return errs.WrapMsg(err, "mark read", "message", messageID)
		}
	}
	return nil
}

func (s *PgStore) GetUnreadCount(ctx context.Context, chatID int64, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM messages m
		WHERE m.chat_id = $1 AND m.sender_id <> $2
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = $2
		  )`, chatID, userID).Scan(&n)
	return n, errs.WrapMsg(err, "unread count", "chat", chatID)
}

func (s *PgStore) GetTotalMessagesToday(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM messages WHERE created_at >= date_trunc('day', now())`).Scan(&n)
	return n, errs.WrapMsg(err, "messages today")
}

// ===== admin =====

func (s *PgStore) GetGroupsCount(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chats WHERE is_group = true`).Scan(&n)
	return n, errs.WrapMsg(err, "groups count")
}
