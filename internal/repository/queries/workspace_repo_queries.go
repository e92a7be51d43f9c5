package queries

const (
	QueryCreateWorkspace = `
		INSERT INTO workspaces (user_id, role, workspace_name, workspace_description, theme, widgets, layout, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;
	`
	QueryGetWorkspaceByUser = `
		SELECT id, user_id, role, workspace_name, workspace_description, theme, widgets, layout, created_at, updated_at
		FROM workspaces
		WHERE user_id = $1;
	`
	QueryUpdateWorkspace = `
		UPDATE workspaces
		SET workspace_name = $2, workspace_description = $3, theme = $4, widgets = $5, layout = $6, updated_at = $7
		WHERE id = $1;
	`
)
