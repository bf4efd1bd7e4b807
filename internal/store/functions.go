package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asedra/attila/internal/domain"
)

// defaultFunctions are seeded on first start, when the catalog is empty.
var defaultFunctions = []domain.Function{
	{
		Name:        "Create Idea",
		Description: "Convert thoughts into structured ideas",
		Icon:        "lightbulb",
		Category:    "idea",
		Parameters: []byte(`[
			{"name":"title","type":"string","description":"Idea title","required":true},
			{"name":"description","type":"string","description":"Idea description","required":true}
		]`),
		IsEnabled:      true,
		IsSystem:       true,
		Implementation: "mcp:idea-create",
	},
	{
		Name:        "Analyze Idea",
		Description: "Perform deep analysis on an idea",
		Icon:        "search",
		Category:    "idea",
		Parameters: []byte(`[
			{"name":"ideaId","type":"string","description":"ID of the idea to analyze","required":true}
		]`),
		IsEnabled:      true,
		IsSystem:       true,
		Implementation: "mcp:idea-analyze",
	},
	{
		Name:        "Create Jira Ticket",
		Description: "Create a new Jira ticket from conversation",
		Icon:        "ticket",
		Category:    "task",
		Parameters: []byte(`[
			{"name":"title","type":"string","description":"Ticket title","required":true},
			{"name":"description","type":"string","description":"Ticket description","required":true},
			{"name":"priority","type":"string","description":"Priority level","required":false,"default":"Medium"}
		]`),
		IsEnabled:      true,
		IsSystem:       true,
		Implementation: "mcp:jira-create",
	},
	{
		Name:        "Save to Confluence",
		Description: "Save analysis or documentation to Confluence",
		Icon:        "file-text",
		Category:    "integration",
		Parameters: []byte(`[
			{"name":"title","type":"string","description":"Page title","required":true},
			{"name":"content","type":"string","description":"Page content","required":true},
			{"name":"spaceKey","type":"string","description":"Confluence space key","required":true}
		]`),
		IsEnabled:      true,
		IsSystem:       true,
		Implementation: "mcp:confluence-save",
	},
}

// seedDefaultFunctions inserts the default catalog if no functions exist yet.
func (s *SQLiteStore) seedDefaultFunctions(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM functions`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, fn := range defaultFunctions {
			fn.ID = uuid.New().String()
			now := time.Now().UTC()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO functions (id, name, description, icon, category, parameters, is_enabled, is_system, implementation, created_at, updated_at, metadata)
				 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, NULL)`,
				fn.ID, fn.Name, nullable(fn.Description), fn.Icon, fn.Category,
				string(fn.Parameters), boolInt(fn.IsEnabled), nullable(fn.Implementation), now, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListFunctions returns the catalog, newest first. Disabled functions are
// excluded unless includeDisabled is set.
func (s *SQLiteStore) ListFunctions(ctx context.Context, includeDisabled bool) ([]domain.Function, error) {
	query := `SELECT id, name, description, icon, category, parameters, is_enabled, is_system, implementation, created_at, updated_at, metadata
	          FROM functions`
	if !includeDisabled {
		query += ` WHERE is_enabled = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFunctions(rows)
}

// ListFunctionsByCategory returns enabled functions in a category.
func (s *SQLiteStore) ListFunctionsByCategory(ctx context.Context, category string) ([]domain.Function, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, icon, category, parameters, is_enabled, is_system, implementation, created_at, updated_at, metadata
		 FROM functions WHERE category = ? AND is_enabled = 1 ORDER BY created_at DESC`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFunctions(rows)
}

// FunctionCategories returns the distinct categories of enabled functions.
func (s *SQLiteStore) FunctionCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM functions WHERE is_enabled = 1 ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetFunction retrieves a function by ID, or nil when not found.
func (s *SQLiteStore) GetFunction(ctx context.Context, functionID string) (*domain.Function, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, icon, category, parameters, is_enabled, is_system, implementation, created_at, updated_at, metadata
		 FROM functions WHERE id = ?`, functionID)
	fn, err := scanFunction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fn, nil
}

// CreateFunction inserts a new function, assigning its ID and timestamps.
func (s *SQLiteStore) CreateFunction(ctx context.Context, fn *domain.Function) error {
	fn.ID = uuid.New().String()
	now := time.Now().UTC()
	fn.CreatedAt = now
	fn.UpdatedAt = now
	if fn.Icon == "" {
		fn.Icon = "gear"
	}
	if len(fn.Parameters) == 0 {
		fn.Parameters = []byte(`[]`)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO functions (id, name, description, icon, category, parameters, is_enabled, is_system, implementation, created_at, updated_at, metadata)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fn.ID, fn.Name, nullable(fn.Description), fn.Icon, fn.Category, string(fn.Parameters),
			boolInt(fn.IsEnabled), boolInt(fn.IsSystem), nullable(fn.Implementation),
			fn.CreatedAt, fn.UpdatedAt, nullableBytes(fn.Metadata))
		return err
	})
}

// UpdateFunction applies partial field updates. Returns nil when the function
// does not exist.
func (s *SQLiteStore) UpdateFunction(ctx context.Context, functionID string, fields FunctionUpdate) (*domain.Function, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if fields.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *fields.Name)
	}
	if fields.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *fields.Description)
	}
	if fields.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, *fields.Icon)
	}
	if fields.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *fields.Category)
	}
	if fields.Parameters != nil {
		sets = append(sets, "parameters = ?")
		args = append(args, string(fields.Parameters))
	}
	if fields.IsEnabled != nil {
		sets = append(sets, "is_enabled = ?")
		args = append(args, boolInt(*fields.IsEnabled))
	}
	if fields.Implementation != nil {
		sets = append(sets, "implementation = ?")
		args = append(args, *fields.Implementation)
	}
	if fields.Metadata != nil {
		sets = append(sets, "metadata = ?")
		args = append(args, string(fields.Metadata))
	}
	args = append(args, functionID)

	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE functions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return s.GetFunction(ctx, functionID)
}

// DeleteFunction removes a non-system function. System functions are refused
// at the service layer; the query also guards against them.
func (s *SQLiteStore) DeleteFunction(ctx context.Context, functionID string) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM functions WHERE id = ? AND is_system = 0`, functionID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	return found, err
}

func scanFunction(row rowScanner) (*domain.Function, error) {
	var fn domain.Function
	var description, parameters, implementation, metadata sql.NullString
	var isEnabled, isSystem int
	if err := row.Scan(&fn.ID, &fn.Name, &description, &fn.Icon, &fn.Category, &parameters,
		&isEnabled, &isSystem, &implementation, &fn.CreatedAt, &fn.UpdatedAt, &metadata); err != nil {
		return nil, err
	}
	fn.Description = description.String
	fn.Implementation = implementation.String
	fn.IsEnabled = isEnabled == 1
	fn.IsSystem = isSystem == 1
	if parameters.Valid && parameters.String != "" {
		fn.Parameters = []byte(parameters.String)
	} else {
		fn.Parameters = []byte(`[]`)
	}
	if metadata.Valid && metadata.String != "" {
		fn.Metadata = []byte(metadata.String)
	}
	return &fn, nil
}

func collectFunctions(rows *sql.Rows) ([]domain.Function, error) {
	var functions []domain.Function
	for rows.Next() {
		fn, err := scanFunction(rows)
		if err != nil {
			return nil, err
		}
		functions = append(functions, *fn)
	}
	return functions, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
