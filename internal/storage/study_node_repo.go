package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mindsy/internal/models"
)

const maxTreeDepth = 20

type StudyNodeRepo struct {
	db *DB
}

func NewStudyNodeRepo(db *DB) *StudyNodeRepo {
	return &StudyNodeRepo{db: db}
}

const nodeColumns = `node_id, user_id, parent_id, name, node_type, COALESCE(description,''),
       COALESCE(color,''), COALESCE(icon,''), pinned, sort_order, created_at, updated_at`

func scanNode(row pgx.Row) (models.StudyNode, error) {
	var n models.StudyNode
	err := row.Scan(&n.NodeID, &n.UserID, &n.ParentID, &n.Name, &n.NodeType, &n.Description,
		&n.Color, &n.Icon, &n.Pinned, &n.SortOrder, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (r *StudyNodeRepo) collect(rows pgx.Rows, verb string) ([]models.StudyNode, error) {
	defer rows.Close()
	out := make([]models.StudyNode, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", verb, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", verb, err)
	}
	return out, nil
}

func (r *StudyNodeRepo) Create(ctx context.Context, n models.StudyNode) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO study_nodes (node_id, user_id, parent_id, name, node_type, description, color, icon, pinned, sort_order)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), $9, $10)`,
		n.NodeID, n.UserID, n.ParentID, n.Name, n.NodeType, n.Description, n.Color, n.Icon, n.Pinned, n.SortOrder)
	if err != nil {
		return fmt.Errorf("insert study node: %w", err)
	}
	return nil
}

func (r *StudyNodeRepo) GetByID(ctx context.Context, userID, nodeID string) (models.StudyNode, error) {
	n, err := scanNode(r.db.Pool.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM study_nodes WHERE user_id=$1 AND node_id=$2`, userID, nodeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.StudyNode{}, ErrNotFound
	}
	if err != nil {
		return models.StudyNode{}, fmt.Errorf("get study node: %w", err)
	}
	return n, nil
}

func (r *StudyNodeRepo) ListRoots(ctx context.Context, userID string) ([]models.StudyNode, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+nodeColumns+` FROM study_nodes
WHERE user_id=$1 AND parent_id IS NULL
ORDER BY sort_order, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list root nodes: %w", err)
	}
	return r.collect(rows, "root node")
}

func (r *StudyNodeRepo) ListChildren(ctx context.Context, userID, nodeID string) ([]models.StudyNode, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+nodeColumns+` FROM study_nodes
WHERE user_id=$1 AND parent_id=$2
ORDER BY sort_order, created_at`, userID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list child nodes: %w", err)
	}
	return r.collect(rows, "child node")
}

// ListDescendants walks the subtree with a recursive CTE, depth-limited. When
// the CTE fails (older databases without the recursive helper), it falls back
// to walking one level at a time.
func (r *StudyNodeRepo) ListDescendants(ctx context.Context, userID, nodeID string, maxDepth int) ([]models.StudyNode, error) {
	if maxDepth <= 0 || maxDepth > maxTreeDepth {
		maxDepth = maxTreeDepth
	}
	rows, err := r.db.Pool.Query(ctx, `
WITH RECURSIVE subtree AS (
  SELECT sn.*, 1 AS depth FROM study_nodes sn WHERE sn.user_id=$1 AND sn.parent_id=$2
  UNION ALL
  SELECT sn.*, st.depth+1 FROM study_nodes sn
  JOIN subtree st ON sn.parent_id=st.node_id
  WHERE sn.user_id=$1 AND st.depth < $3
)
SELECT `+nodeColumns+` FROM subtree ORDER BY depth, sort_order, created_at`, userID, nodeID, maxDepth)
	if err != nil {
		return r.walkDescendants(ctx, userID, nodeID, maxDepth)
	}
	return r.collect(rows, "descendant node")
}

func (r *StudyNodeRepo) walkDescendants(ctx context.Context, userID, nodeID string, maxDepth int) ([]models.StudyNode, error) {
	out := make([]models.StudyNode, 0)
	frontier := []string{nodeID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		next := make([]string, 0)
		for _, id := range frontier {
			children, err := r.ListChildren(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			for _, c := range children {
				out = append(out, c)
				next = append(next, c.NodeID)
			}
		}
		frontier = next
	}
	return out, nil
}

func (r *StudyNodeRepo) ListWithCounts(ctx context.Context, userID string) ([]models.StudyNode, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+nodeColumns+`, (SELECT COUNT(*) FROM jobs j WHERE j.user_id=sn.user_id AND j.study_node_id=sn.node_id) AS note_count
FROM study_nodes sn
WHERE user_id=$1
ORDER BY sort_order, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list nodes with counts: %w", err)
	}
	defer rows.Close()
	out := make([]models.StudyNode, 0)
	for rows.Next() {
		var n models.StudyNode
		if err := rows.Scan(&n.NodeID, &n.UserID, &n.ParentID, &n.Name, &n.NodeType, &n.Description,
			&n.Color, &n.Icon, &n.Pinned, &n.SortOrder, &n.CreatedAt, &n.UpdatedAt, &n.NoteCount); err != nil {
			return nil, fmt.Errorf("scan node with count: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes with counts: %w", err)
	}
	return out, nil
}

func (r *StudyNodeRepo) ListPinned(ctx context.Context, userID string) ([]models.StudyNode, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+nodeColumns+` FROM study_nodes
WHERE user_id=$1 AND pinned
ORDER BY sort_order, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list pinned nodes: %w", err)
	}
	return r.collect(rows, "pinned node")
}

// Update applies a full node update. Parent reassignment must pass the cycle
// check first; callers go through CheckParent.
func (r *StudyNodeRepo) Update(ctx context.Context, n models.StudyNode) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE study_nodes SET parent_id=$3, name=$4, node_type=$5, description=NULLIF($6,''),
       color=NULLIF($7,''), icon=NULLIF($8,''), pinned=$9, sort_order=$10, updated_at=NOW()
WHERE user_id=$1 AND node_id=$2`,
		n.UserID, n.NodeID, n.ParentID, n.Name, n.NodeType, n.Description, n.Color, n.Icon, n.Pinned, n.SortOrder)
	if err != nil {
		return fmt.Errorf("update study node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a node and reparents its children to the deleted node's
// parent so the subtree is not orphaned.
func (r *StudyNodeRepo) Delete(ctx context.Context, userID, nodeID string) error {
	n, err := r.GetByID(ctx, userID, nodeID)
	if err != nil {
		return err
	}
	if _, err := r.db.Pool.Exec(ctx, `
UPDATE study_nodes SET parent_id=$3, updated_at=NOW() WHERE user_id=$1 AND parent_id=$2`,
		userID, nodeID, n.ParentID); err != nil {
		return fmt.Errorf("reparent children: %w", err)
	}
	if _, err := r.db.Pool.Exec(ctx, `
UPDATE jobs SET study_node_id=NULL, updated_at=NOW() WHERE user_id=$1 AND study_node_id=$2`,
		userID, nodeID); err != nil {
		return fmt.Errorf("detach jobs from node: %w", err)
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM study_nodes WHERE user_id=$1 AND node_id=$2`, userID, nodeID)
	if err != nil {
		return fmt.Errorf("delete study node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var ErrNodeCycle = errors.New("parent assignment would create a cycle")

// CheckParent validates a parent reassignment: the parent must exist, belong
// to the same user, and not sit inside the node's own subtree.
func (r *StudyNodeRepo) CheckParent(ctx context.Context, userID, nodeID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if _, err := r.GetByID(ctx, userID, *parentID); err != nil {
		return err
	}
	lookup := func(id string) (*string, error) {
		n, err := r.GetByID(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		return n.ParentID, nil
	}
	cycle, err := WouldCreateCycle(nodeID, *parentID, lookup)
	if err != nil {
		return err
	}
	if cycle {
		return ErrNodeCycle
	}
	return nil
}

// WouldCreateCycle walks the ancestor chain of newParentID; if it reaches
// nodeID the reassignment would close a loop. The walk is depth-capped so a
// pre-existing corrupt chain cannot spin forever.
func WouldCreateCycle(nodeID, newParentID string, parentOf func(id string) (*string, error)) (bool, error) {
	if nodeID == newParentID {
		return true, nil
	}
	cur := newParentID
	for i := 0; i < maxTreeDepth; i++ {
		parent, err := parentOf(cur)
		if err != nil {
			return false, err
		}
		if parent == nil {
			return false, nil
		}
		if *parent == nodeID {
			return true, nil
		}
		cur = *parent
	}
	return true, nil
}
