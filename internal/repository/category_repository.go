package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ecommerce-platform/internal/domain"
	"ecommerce-platform/internal/tree"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound       = fmt.Errorf("category %w", domain.ErrNotFound)
	ErrCategoryAlreadyExists  = fmt.Errorf("category with this name already exists: %w", domain.ErrConflict)
	ErrParentCategoryNotFound = &domain.ValidationError{Field: "parent_id", Message: "parent category does not exist"}
	ErrCategoryCycle          = &domain.ValidationError{Field: "parent_id", Message: "category cannot be moved below itself"}
)

// categoryTreeLockKey serializes structural changes to the category forest
const categoryTreeLockKey = 7242001

// CategoryFilter narrows category listings
type CategoryFilter struct {
	Active    *bool
	Search    string
	RootsOnly bool
}

// CategoryRepository defines the interface for category data access.
// Create, Update and Delete keep the nested-set bounds consistent inside
// the same transaction as the row change.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, filter CategoryFilter) ([]*domain.Category, error)
	Summaries(ctx context.Context, filter CategoryFilter, page, pageSize int) ([]*domain.CategorySummary, int, error)
	RootOf(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	RootNameByTreeID(ctx context.Context, treeID int) (string, error)
	Descendants(ctx context.Context, id uuid.UUID, includeSelf bool) ([]*domain.Category, error)
	DirectProductCount(ctx context.Context, id uuid.UUID) (int, error)
	SubtreeProductCount(ctx context.Context, id uuid.UUID) (int, error)
	Rebuild(ctx context.Context) (int, error)
}

type categoryRepository struct {
	db *sql.DB
	tx TxRunner
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db, tx: NewTxRunner(db)}
}

const categoryColumns = `
	c.id, c.name, c.slug, c.parent_id, c.description, c.is_active,
	c.lft, c.rght, c.tree_id, c.level, c.created_at, c.updated_at, p.name`

const categoryFrom = `
	FROM categories c
	LEFT JOIN categories p ON p.id = c.parent_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row rowScanner, extra ...interface{}) (*domain.Category, error) {
	category := &domain.Category{}
	var parentID uuid.NullUUID
	var parentName sql.NullString

	dest := []interface{}{
		&category.ID,
		&category.Name,
		&category.Slug,
		&parentID,
		&category.Description,
		&category.IsActive,
		&category.Lft,
		&category.Rght,
		&category.TreeID,
		&category.Level,
		&category.CreatedAt,
		&category.UpdatedAt,
		&parentName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if parentID.Valid {
		id := parentID.UUID
		category.ParentID = &id
		category.Parent = &domain.CategoryRef{ID: id, Name: parentName.String}
	}
	return category, nil
}

func findCategory(ctx context.Context, q DBTX, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT` + categoryColumns + categoryFrom + ` WHERE c.id = $1`

	category, err := scanCategory(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	return category, nil
}

func lockCategoryTree(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, categoryTreeLockKey); err != nil {
		return fmt.Errorf("failed to lock category tree: %w", err)
	}
	return nil
}

func nextTreeID(ctx context.Context, q DBTX) (int, error) {
	var id int
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(tree_id), 0) + 1 FROM categories`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate tree id: %w", err)
	}
	return id, nil
}

// Create inserts a category and places it in its tree
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	return r.tx.InTx(ctx, func(tx *sql.Tx) error {
		if err := lockCategoryTree(ctx, tx); err != nil {
			return err
		}

		if category.ParentID == nil {
			treeID, err := nextTreeID(ctx, tx)
			if err != nil {
				return err
			}
			category.TreeID, category.Lft, category.Rght, category.Level = treeID, 1, 2, 0
			category.Parent = nil
			return insertCategory(ctx, tx, category)
		}

		parent, err := findCategory(ctx, tx, *category.ParentID)
		if err != nil {
			if errors.Is(err, ErrCategoryNotFound) {
				return ErrParentCategoryNotFound
			}
			return err
		}

		// Temporary bounds; the rebuild below assigns the real ones
		category.TreeID, category.Lft, category.Rght = parent.TreeID, parent.Rght, parent.Rght+1
		if err := insertCategory(ctx, tx, category); err != nil {
			return err
		}

		placed, err := rebuildTrees(ctx, tx, parent.TreeID)
		if err != nil {
			return err
		}
		applyPlacement(category, placed)
		category.Parent = &domain.CategoryRef{ID: parent.ID, Name: parent.Name}
		return nil
	})
}

func insertCategory(ctx context.Context, tx *sql.Tx, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, parent_id, description, is_active,
		                        lft, rght, tree_id, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		nullableUUID(category.ParentID),
		category.Description,
		category.IsActive,
		category.Lft,
		category.Rght,
		category.TreeID,
		category.Level,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update writes the category's attributes. A changed parent moves the whole
// subtree; moving a category below itself fails with ErrCategoryCycle.
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	return r.tx.InTx(ctx, func(tx *sql.Tx) error {
		if err := lockCategoryTree(ctx, tx); err != nil {
			return err
		}

		existing, err := findCategory(ctx, tx, category.ID)
		if err != nil {
			return err
		}

		affected := []int{existing.TreeID}
		var parent *domain.Category
		if category.ParentID != nil {
			parent, err = findCategory(ctx, tx, *category.ParentID)
			if err != nil {
				if errors.Is(err, ErrCategoryNotFound) {
					return ErrParentCategoryNotFound
				}
				return err
			}
			if parent.ID == existing.ID || existing.Contains(parent) {
				return ErrCategoryCycle
			}
			if parent.TreeID != existing.TreeID {
				affected = append(affected, parent.TreeID)
			}
		}

		query := `
			UPDATE categories
			SET name = $2, slug = $3, parent_id = $4, description = $5, is_active = $6, updated_at = $7
			WHERE id = $1
		`
		_, err = tx.ExecContext(
			ctx,
			query,
			category.ID,
			category.Name,
			category.Slug,
			nullableUUID(category.ParentID),
			category.Description,
			category.IsActive,
			category.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCategoryAlreadyExists
			}
			return fmt.Errorf("failed to update category: %w", err)
		}

		category.CreatedAt = existing.CreatedAt
		category.Lft, category.Rght, category.TreeID, category.Level = existing.Lft, existing.Rght, existing.TreeID, existing.Level
		category.Parent = nil
		if parent != nil {
			category.Parent = &domain.CategoryRef{ID: parent.ID, Name: parent.Name}
		}

		// Siblings are ordered by name, so a rename can reorder them too
		if !sameParent(existing.ParentID, category.ParentID) || existing.Name != category.Name {
			placed, err := rebuildTrees(ctx, tx, affected...)
			if err != nil {
				return err
			}
			applyPlacement(category, placed)
		}
		return nil
	})
}

// Delete removes the category together with its whole subtree. Product
// associations of the removed categories cascade; products stay.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.tx.InTx(ctx, func(tx *sql.Tx) error {
		if err := lockCategoryTree(ctx, tx); err != nil {
			return err
		}

		existing, err := findCategory(ctx, tx, id)
		if err != nil {
			return err
		}

		query := `DELETE FROM categories WHERE tree_id = $1 AND lft >= $2 AND rght <= $3`
		if _, err := tx.ExecContext(ctx, query, existing.TreeID, existing.Lft, existing.Rght); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}

		if existing.IsRoot() {
			return nil
		}
		_, err = rebuildTrees(ctx, tx, existing.TreeID)
		return err
	})
}

// FindByID retrieves a category by ID
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return findCategory(ctx, conn(ctx, r.db), id)
}

func (f CategoryFilter) where(args []interface{}) (string, []interface{}) {
	var conditions []string
	if f.Active != nil {
		args = append(args, *f.Active)
		conditions = append(conditions, fmt.Sprintf("c.is_active = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conditions = append(conditions, fmt.Sprintf("c.name ILIKE $%d", len(args)))
	}
	if f.RootsOnly {
		conditions = append(conditions, "c.parent_id IS NULL")
	}
	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves categories in tree order
func (r *categoryRepository) List(ctx context.Context, filter CategoryFilter) ([]*domain.Category, error) {
	whereClause, args := filter.where(nil)
	query := `SELECT` + categoryColumns + categoryFrom + ` ` + whereClause + ` ORDER BY c.tree_id, c.lft`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Summaries lists categories ordered by name together with their direct and
// cumulative distinct product counts. A pageSize of 0 returns every row.
func (r *categoryRepository) Summaries(ctx context.Context, filter CategoryFilter, page, pageSize int) ([]*domain.CategorySummary, int, error) {
	whereClause, args := filter.where(nil)

	var total int
	countQuery := `SELECT COUNT(*) FROM categories c ` + whereClause
	if err := conn(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	query := `
		SELECT` + categoryColumns + `,
			(SELECT COUNT(DISTINCT pc.product_id)
			   FROM product_categories pc
			  WHERE pc.category_id = c.id) AS products_count,
			(SELECT COUNT(DISTINCT pc.product_id)
			   FROM product_categories pc
			   JOIN categories d ON d.id = pc.category_id
			  WHERE d.tree_id = c.tree_id AND d.lft >= c.lft AND d.rght <= c.rght) AS products_cumulative_count
		` + categoryFrom + `
		` + whereClause + `
		ORDER BY c.name ASC`

	if pageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, pageSize, pageOffset(page, pageSize))
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list category summaries: %w", err)
	}
	defer rows.Close()

	summaries := []*domain.CategorySummary{}
	for rows.Next() {
		summary := &domain.CategorySummary{}
		category, err := scanCategory(rows, &summary.ProductsCount, &summary.ProductsCumulativeCount)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan category summary: %w", err)
		}
		summary.Category = category
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating category summaries: %w", err)
	}

	return summaries, total, nil
}

// RootOf returns the root of the tree containing id; a root is its own root
func (r *categoryRepository) RootOf(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT` + categoryColumns + categoryFrom + `
		WHERE c.parent_id IS NULL
		  AND c.tree_id = (SELECT tree_id FROM categories WHERE id = $1)`

	root, err := scanCategory(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find root category: %w", err)
	}
	return root, nil
}

// RootNameByTreeID returns the name of the root of tree treeID
func (r *categoryRepository) RootNameByTreeID(ctx context.Context, treeID int) (string, error) {
	var name string
	query := `SELECT name FROM categories WHERE tree_id = $1 AND parent_id IS NULL`
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, treeID).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCategoryNotFound
		}
		return "", fmt.Errorf("failed to find root name: %w", err)
	}
	return name, nil
}

// Descendants returns the subtree below id in tree order
func (r *categoryRepository) Descendants(ctx context.Context, id uuid.UUID, includeSelf bool) ([]*domain.Category, error) {
	node, err := findCategory(ctx, conn(ctx, r.db), id)
	if err != nil {
		return nil, err
	}

	bounds := `c.lft > $2 AND c.rght < $3`
	if includeSelf {
		bounds = `c.lft >= $2 AND c.rght <= $3`
	}
	query := `SELECT` + categoryColumns + categoryFrom + `
		WHERE c.tree_id = $1 AND ` + bounds + `
		ORDER BY c.lft`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, node.TreeID, node.Lft, node.Rght)
	if err != nil {
		return nil, fmt.Errorf("failed to list descendants: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating descendants: %w", err)
	}

	return categories, nil
}

// DirectProductCount counts distinct products linked to exactly this category
func (r *categoryRepository) DirectProductCount(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(DISTINCT pc.product_id)
		FROM categories c
		LEFT JOIN product_categories pc ON pc.category_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`
	return r.count(ctx, query, id)
}

// SubtreeProductCount counts distinct products linked to the category or any
// of its descendants
func (r *categoryRepository) SubtreeProductCount(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(DISTINCT pc.product_id)
		FROM categories n
		JOIN categories d ON d.tree_id = n.tree_id AND d.lft >= n.lft AND d.rght <= n.rght
		LEFT JOIN product_categories pc ON pc.category_id = d.id
		WHERE n.id = $1
		GROUP BY n.id
	`
	return r.count(ctx, query, id)
}

func (r *categoryRepository) count(ctx context.Context, query string, id uuid.UUID) (int, error) {
	var n int
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCategoryNotFound
		}
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// Rebuild recomputes the bounds of every tree from the parent links and
// returns the number of categories laid out
func (r *categoryRepository) Rebuild(ctx context.Context) (int, error) {
	var n int
	err := r.tx.InTx(ctx, func(tx *sql.Tx) error {
		if err := lockCategoryTree(ctx, tx); err != nil {
			return err
		}
		placed, err := relayout(ctx, tx, `SELECT id, parent_id, name, tree_id, lft, rght, level FROM categories`)
		n = len(placed)
		return err
	})
	return n, err
}

type storedNode struct {
	node   tree.Node
	treeID int
	lft    int
	rght   int
	level  int
}

type placedNode struct {
	tree.Placement
	TreeID int
}

// rebuildTrees recomputes bounds for every category currently in treeIDs
func rebuildTrees(ctx context.Context, tx *sql.Tx, treeIDs ...int) (map[uuid.UUID]placedNode, error) {
	placeholders := make([]string, len(treeIDs))
	args := make([]interface{}, len(treeIDs))
	for i, id := range treeIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT id, parent_id, name, tree_id, lft, rght, level FROM categories WHERE tree_id IN (` +
		strings.Join(placeholders, ", ") + `)`
	return relayout(ctx, tx, query, args...)
}

func relayout(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (map[uuid.UUID]placedNode, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load category tree: %w", err)
	}

	var stored []storedNode
	for rows.Next() {
		var s storedNode
		var parentID uuid.NullUUID
		if err := rows.Scan(&s.node.ID, &parentID, &s.node.Name, &s.treeID, &s.lft, &s.rght, &s.level); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan category node: %w", err)
		}
		if parentID.Valid {
			id := parentID.UUID
			s.node.ParentID = &id
		}
		stored = append(stored, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category tree: %w", err)
	}

	nodes := make([]tree.Node, len(stored))
	byID := make(map[uuid.UUID]storedNode, len(stored))
	for i, s := range stored {
		nodes[i] = s.node
		byID[s.node.ID] = s
	}

	forest, err := tree.NewForest(nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to index category tree: %w", err)
	}
	placements, err := forest.Layout()
	if err != nil {
		return nil, fmt.Errorf("failed to lay out category tree: %w", err)
	}

	// A root keeps its tree id when it was already the root of that tree
	// (stored lft of 1); detached subtrees get fresh ids.
	treeIDs := make(map[uuid.UUID]int)
	claimed := make(map[int]bool)
	var fresh []uuid.UUID
	for _, rootID := range forest.Roots() {
		s := byID[rootID]
		if s.lft == 1 && !claimed[s.treeID] {
			treeIDs[rootID] = s.treeID
			claimed[s.treeID] = true
			continue
		}
		fresh = append(fresh, rootID)
	}
	if len(fresh) > 0 {
		next, err := nextTreeID(ctx, tx)
		if err != nil {
			return nil, err
		}
		for _, rootID := range fresh {
			treeIDs[rootID] = next
			next++
		}
	}

	placed := make(map[uuid.UUID]placedNode, len(placements))
	update := `UPDATE categories SET lft = $2, rght = $3, level = $4, tree_id = $5 WHERE id = $1`
	for id, p := range placements {
		pn := placedNode{Placement: p, TreeID: treeIDs[p.RootID]}
		placed[id] = pn

		s := byID[id]
		if s.lft == p.Lft && s.rght == p.Rght && s.level == p.Level && s.treeID == pn.TreeID {
			continue
		}
		if _, err := tx.ExecContext(ctx, update, id, p.Lft, p.Rght, p.Level, pn.TreeID); err != nil {
			return nil, fmt.Errorf("failed to update category bounds: %w", err)
		}
	}

	return placed, nil
}

func applyPlacement(category *domain.Category, placed map[uuid.UUID]placedNode) {
	if p, ok := placed[category.ID]; ok {
		category.Lft, category.Rght, category.Level, category.TreeID = p.Lft, p.Rght, p.Level, p.TreeID
	}
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
