package queries

const (
	QueryCreateMediaAsset = `
		INSERT INTO media_assets (user_id, file_url, file_type, mime_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`
	QueryListMediaByUser = `
		SELECT id, user_id, file_url, file_type, mime_type, size_bytes, created_at
		FROM media_assets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC;
	`
)
