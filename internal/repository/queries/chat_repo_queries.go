package queries

const (
	QueryAppendChatMessage = `
		INSERT INTO chat_messages (user_id, user_name, channel, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, user_name, channel, content, created_at;
	`
	// newest N, затем разворот в порядок по возрастанию id
	QueryRecentChatMessages = `
		SELECT id, user_id, user_name, channel, content, created_at
		FROM (
			SELECT id, user_id, user_name, channel, content, created_at
			FROM chat_messages
			WHERE channel = $1
			ORDER BY id DESC
			LIMIT $2
		) AS recent
		ORDER BY id ASC;
	`
)
