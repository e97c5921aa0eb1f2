package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

func (db *PgRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (name, email, password_hash, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, name, email, created_at",
		params.Name,
		params.Email,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.Email,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET name = $2, location = $3, supported_causes = $4, "+
			"profile_picture = $5, updated_at = $6 WHERE id = $1 "+
			"RETURNING id, name, email, location, supported_causes, profile_picture, created_at, updated_at",
		params.UserId,
		params.Name,
		params.Location,
		pq.Array(params.SupportedCauses),
		params.ProfilePicture,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.Email,
		&u.Location,
		pq.Array(&u.SupportedCauses),
		&u.ProfilePicture,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgRepository) UpdatePassword(accountId int, passwordHash string) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1",
		accountId,
		passwordHash,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, location, supported_causes, profile_picture, password_hash, created_at, updated_at "+
			"FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.Email,
		&u.Location,
		pq.Array(&u.SupportedCauses),
		&u.ProfilePicture,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, email, password_hash, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgRepository) CreateChannel(params CreateChannelParams) (Channel, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Channel{}, err
	}
	defer tx.Rollback()

	res := tx.QueryRow(
		"INSERT INTO channels (external_id, name, description, private, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, external_id, name, description, private, created_at",
		params.ExternalId,
		params.Name,
		params.Description,
		params.Private,
		time.Now().UTC(),
	)

	var ch Channel
	if err := res.Scan(
		&ch.Id,
		&ch.ExternalId,
		&ch.Name,
		&ch.Description,
		&ch.Private,
		&ch.CreatedAt,
	); err != nil {
		return Channel{}, err
	}

	// the creator is the channel's first member
	if _, err := tx.Exec(
		"INSERT INTO channel_members (channel_id, account_id) VALUES ($1, $2)",
		ch.Id,
		params.CreatorId,
	); err != nil {
		return Channel{}, err
	}

	if err := tx.Commit(); err != nil {
		return Channel{}, err
	}

	return ch, nil
}

func (db *PgRepository) GetChannelByExternalId(externalId string) (Channel, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, description, private, created_at FROM channels "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var ch Channel
	err := row.Scan(
		&ch.Id,
		&ch.ExternalId,
		&ch.Name,
		&ch.Description,
		&ch.Private,
		&ch.CreatedAt,
	)

	return ch, err
}

func (db *PgRepository) ListChannels() ([]Channel, error) {
	query := `
		SELECT
				c.id,
				c.external_id,
				c.name,
				c.description,
				c.private,
				c.created_at,
				a.id,
				a.name,
				a.email
		FROM channels c
		LEFT JOIN channel_members m ON c.id = m.channel_id
		LEFT JOIN accounts a ON m.account_id = a.id
		ORDER BY c.created_at;
`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	index := make(map[int]int)
	for rows.Next() {
		var (
			ch          Channel
			memberId    sql.NullInt64
			memberName  sql.NullString
			memberEmail sql.NullString
		)

		if err := rows.Scan(
			&ch.Id,
			&ch.ExternalId,
			&ch.Name,
			&ch.Description,
			&ch.Private,
			&ch.CreatedAt,
			&memberId,
			&memberName,
			&memberEmail,
		); err != nil {
			return nil, err
		}

		i, ok := index[ch.Id]
		if !ok {
			channels = append(channels, ch)
			i = len(channels) - 1
			index[ch.Id] = i
		}

		if memberId.Valid {
			channels[i].Members = append(channels[i].Members, User{
				Id:    int(memberId.Int64),
				Name:  memberName.String,
				Email: memberEmail.String,
			})
		}
	}

	return channels, rows.Err()
}

func (db *PgRepository) AddChannelMember(channelId, accountId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO channel_members (channel_id, account_id) VALUES ($1, $2) "+
			"ON CONFLICT DO NOTHING",
		channelId,
		accountId,
	)

	return err
}

func (db *PgRepository) RemoveChannelMember(channelId, accountId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM channel_members WHERE channel_id = $1 AND account_id = $2",
		channelId,
		accountId,
	)

	return err
}

func (db *PgRepository) IsChannelMember(channelId, accountId int) bool {
	row := db.conn.QueryRow(
		"SELECT 1 FROM channel_members WHERE channel_id = $1 AND account_id = $2 LIMIT 1",
		channelId,
		accountId,
	)

	var one int
	return row.Scan(&one) == nil
}

func (db *PgRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	// resolves the channel by external id in the same statement: a missing
	// channel surfaces as sql.ErrNoRows and nothing is written
	res := db.conn.QueryRow(
		"INSERT INTO messages (channel_id, sender_id, content, created_at) "+
			"SELECT c.id, $2, $3, $4 FROM channels c WHERE c.external_id = $1 "+
			"RETURNING id, channel_id, created_at",
		params.ChannelExId,
		params.SenderId,
		params.Content,
		time.Now().UTC(),
	)

	var m Message
	err := res.Scan(
		&m.Id,
		&m.ChannelId,
		&m.CreatedAt,
	)
	m.ChannelExId = params.ChannelExId
	m.SenderId = params.SenderId
	m.Content = params.Content

	return m, err
}

func (db *PgRepository) GetMessageById(messageId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT m.id, m.channel_id, c.external_id, m.sender_id, a.name, a.email, m.content, m.created_at "+
			"FROM messages m "+
			"JOIN channels c ON m.channel_id = c.id "+
			"JOIN accounts a ON m.sender_id = a.id "+
			"WHERE m.id = $1 LIMIT 1",
		messageId,
	)

	var m Message
	err := row.Scan(
		&m.Id,
		&m.ChannelId,
		&m.ChannelExId,
		&m.SenderId,
		&m.SenderName,
		&m.SenderEmail,
		&m.Content,
		&m.CreatedAt,
	)

	return m, err
}

func (db *PgRepository) ListMessagesByChannel(channelId int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT m.id, m.channel_id, c.external_id, m.sender_id, a.name, a.email, m.content, m.created_at "+
			"FROM messages m "+
			"JOIN channels c ON m.channel_id = c.id "+
			"JOIN accounts a ON m.sender_id = a.id "+
			"WHERE m.channel_id = $1 ORDER BY m.created_at DESC",
		channelId,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Id,
			&m.ChannelId,
			&m.ChannelExId,
			&m.SenderId,
			&m.SenderName,
			&m.SenderEmail,
			&m.Content,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (db *PgRepository) UpdateMessageContent(messageId int, content string) (Message, error) {
	res := db.conn.QueryRow(
		"UPDATE messages SET content = $2 WHERE id = $1 RETURNING id, channel_id, sender_id, content, created_at",
		messageId,
		content,
	)

	var m Message
	err := res.Scan(
		&m.Id,
		&m.ChannelId,
		&m.SenderId,
		&m.Content,
		&m.CreatedAt,
	)

	return m, err
}

func (db *PgRepository) DeleteMessage(messageId int) error {
	_, err := db.conn.Exec("DELETE FROM messages WHERE id = $1", messageId)
	return err
}

func (db *PgRepository) CreatePost(params CreatePostParams) (Post, error) {
	res := db.conn.QueryRow(
		"INSERT INTO posts (author_id, content, image_url, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, author_id, content, image_url, created_at",
		params.AuthorId,
		params.Content,
		params.ImageUrl,
		time.Now().UTC(),
	)

	var p Post
	err := res.Scan(
		&p.Id,
		&p.AuthorId,
		&p.Content,
		&p.ImageUrl,
		&p.CreatedAt,
	)

	return p, err
}

func (db *PgRepository) GetPostById(postId int) (Post, error) {
	row := db.conn.QueryRow(
		"SELECT p.id, p.author_id, a.name, p.content, p.image_url, p.created_at "+
			"FROM posts p JOIN accounts a ON p.author_id = a.id "+
			"WHERE p.id = $1 LIMIT 1",
		postId,
	)

	var p Post
	if err := row.Scan(
		&p.Id,
		&p.AuthorId,
		&p.AuthorName,
		&p.Content,
		&p.ImageUrl,
		&p.CreatedAt,
	); err != nil {
		return Post{}, err
	}

	if err := db.loadPostRelations(&p); err != nil {
		return Post{}, err
	}

	return p, nil
}

func (db *PgRepository) loadPostRelations(p *Post) error {
	row := db.conn.QueryRow(
		"SELECT COALESCE(array_agg(account_id), '{}') FROM post_likes WHERE post_id = $1",
		p.Id,
	)
	if err := row.Scan(pq.Array(&p.Likes)); err != nil {
		return err
	}

	rows, err := db.conn.Query(
		"SELECT c.id, c.account_id, a.name, c.content, c.created_at "+
			"FROM post_comments c JOIN accounts a ON c.account_id = a.id "+
			"WHERE c.post_id = $1 ORDER BY c.created_at",
		p.Id,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.Id, &c.UserId, &c.UserName, &c.Content, &c.CreatedAt); err != nil {
			return err
		}
		p.Comments = append(p.Comments, c)
	}

	return rows.Err()
}

func (db *PgRepository) ListPosts() ([]Post, error) {
	rows, err := db.conn.Query(
		"SELECT p.id, p.author_id, a.name, p.content, p.image_url, p.created_at " +
			"FROM posts p JOIN accounts a ON p.author_id = a.id " +
			"ORDER BY p.created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(
			&p.Id,
			&p.AuthorId,
			&p.AuthorName,
			&p.Content,
			&p.ImageUrl,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range posts {
		if err := db.loadPostRelations(&posts[i]); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

func (db *PgRepository) TogglePostLike(postId, accountId int) (Post, error) {
	res, err := db.conn.Exec(
		"DELETE FROM post_likes WHERE post_id = $1 AND account_id = $2",
		postId,
		accountId,
	)
	if err != nil {
		return Post{}, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return Post{}, err
	}

	if deleted == 0 {
		if _, err := db.conn.Exec(
			"INSERT INTO post_likes (post_id, account_id) VALUES ($1, $2)",
			postId,
			accountId,
		); err != nil {
			return Post{}, err
		}
	}

	return db.GetPostById(postId)
}

func (db *PgRepository) AddPostComment(postId, accountId int, content string) (Post, error) {
	if _, err := db.conn.Exec(
		"INSERT INTO post_comments (post_id, account_id, content, created_at) VALUES ($1, $2, $3, $4)",
		postId,
		accountId,
		content,
		time.Now().UTC(),
	); err != nil {
		return Post{}, err
	}

	return db.GetPostById(postId)
}

func (db *PgRepository) CreateInitiative(params CreateInitiativeParams) (Initiative, error) {
	res := db.conn.QueryRow(
		"INSERT INTO initiatives (title, description, category, status, tags, creator_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) "+
			"RETURNING id, title, description, category, status, tags, creator_id, created_at",
		params.Title,
		params.Description,
		params.Category,
		params.Status,
		pq.Array(params.Tags),
		params.CreatorId,
		time.Now().UTC(),
	)

	var in Initiative
	err := res.Scan(
		&in.Id,
		&in.Title,
		&in.Description,
		&in.Category,
		&in.Status,
		pq.Array(&in.Tags),
		&in.CreatorId,
		&in.CreatedAt,
	)

	return in, err
}

func (db *PgRepository) ListInitiatives(category, status string) ([]Initiative, error) {
	rows, err := db.conn.Query(
		"SELECT i.id, i.title, i.description, i.category, i.status, i.tags, i.creator_id, a.name, i.created_at "+
			"FROM initiatives i JOIN accounts a ON i.creator_id = a.id "+
			"WHERE ($1 = '' OR i.category = $1) AND ($2 = '' OR i.status = $2) "+
			"ORDER BY i.created_at DESC",
		category,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("list initiatives: %w", err)
	}
	defer rows.Close()

	var initiatives []Initiative
	for rows.Next() {
		var in Initiative
		if err := rows.Scan(
			&in.Id,
			&in.Title,
			&in.Description,
			&in.Category,
			&in.Status,
			pq.Array(&in.Tags),
			&in.CreatorId,
			&in.CreatorName,
			&in.CreatedAt,
		); err != nil {
			return nil, err
		}
		initiatives = append(initiatives, in)
	}

	return initiatives, rows.Err()
}

func (db *PgRepository) CreateOrganization(params CreateOrganizationParams) (Organization, error) {
	res := db.conn.QueryRow(
		"INSERT INTO organizations (name, description, category, website, creator_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"RETURNING id, name, description, category, website, creator_id, created_at",
		params.Name,
		params.Description,
		params.Category,
		params.Website,
		params.CreatorId,
		time.Now().UTC(),
	)

	var o Organization
	err := res.Scan(
		&o.Id,
		&o.Name,
		&o.Description,
		&o.Category,
		&o.Website,
		&o.CreatorId,
		&o.CreatedAt,
	)

	return o, err
}

func (db *PgRepository) ListOrganizations(category string) ([]Organization, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, description, category, website, creator_id, created_at "+
			"FROM organizations WHERE ($1 = '' OR category = $1) ORDER BY created_at DESC",
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(
			&o.Id,
			&o.Name,
			&o.Description,
			&o.Category,
			&o.Website,
			&o.CreatorId,
			&o.CreatedAt,
		); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}

	return orgs, rows.Err()
}

func (db *PgRepository) CreateResource(params CreateResourceParams) (Resource, error) {
	res := db.conn.QueryRow(
		"INSERT INTO resources (title, description, category, url, creator_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"RETURNING id, title, description, category, url, creator_id, created_at",
		params.Title,
		params.Description,
		params.Category,
		params.Url,
		params.CreatorId,
		time.Now().UTC(),
	)

	var r Resource
	err := res.Scan(
		&r.Id,
		&r.Title,
		&r.Description,
		&r.Category,
		&r.Url,
		&r.CreatorId,
		&r.CreatedAt,
	)

	return r, err
}

func (db *PgRepository) ListResources(category string) ([]Resource, error) {
	rows, err := db.conn.Query(
		"SELECT id, title, description, category, url, creator_id, created_at "+
			"FROM resources WHERE ($1 = '' OR category = $1) ORDER BY created_at DESC",
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []Resource
	for rows.Next() {
		var r Resource
		if err := rows.Scan(
			&r.Id,
			&r.Title,
			&r.Description,
			&r.Category,
			&r.Url,
			&r.CreatorId,
			&r.CreatedAt,
		); err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}

	return resources, rows.Err()
}

func (db *PgRepository) CreateOpportunity(params CreateOpportunityParams) (Opportunity, error) {
	res := db.conn.QueryRow(
		"INSERT INTO opportunities (title, description, category, location, creator_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"RETURNING id, title, description, category, location, creator_id, created_at",
		params.Title,
		params.Description,
		params.Category,
		params.Location,
		params.CreatorId,
		time.Now().UTC(),
	)

	var o Opportunity
	err := res.Scan(
		&o.Id,
		&o.Title,
		&o.Description,
		&o.Category,
		&o.Location,
		&o.CreatorId,
		&o.CreatedAt,
	)

	return o, err
}

func (db *PgRepository) ListOpportunities(category string) ([]Opportunity, error) {
	rows, err := db.conn.Query(
		"SELECT id, title, description, category, location, creator_id, created_at "+
			"FROM opportunities WHERE ($1 = '' OR category = $1) ORDER BY created_at DESC",
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []Opportunity
	for rows.Next() {
		var o Opportunity
		if err := rows.Scan(
			&o.Id,
			&o.Title,
			&o.Description,
			&o.Category,
			&o.Location,
			&o.CreatorId,
			&o.CreatedAt,
		); err != nil {
			return nil, err
		}
		opps = append(opps, o)
	}

	return opps, rows.Err()
}
