package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mindsy/internal/auth"
	"mindsy/internal/models"
	"mindsy/internal/storage"

	"github.com/google/uuid"
)

func (s *Server) handleStudyNodes(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		nodes, err := s.nodeRepo.ListRoots(r.Context(), userID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
	case http.MethodPost:
		var req struct {
			Name        string  `json:"name"`
			NodeType    string  `json:"node_type"`
			ParentID    *string `json:"parent_id"`
			Description string  `json:"description"`
			Color       string  `json:"color"`
			Icon        string  `json:"icon"`
			SortOrder   int     `json:"sort_order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, errors.New("name is required"))
			return
		}
		if req.NodeType == "" {
			req.NodeType = string(models.NodeCustom)
		}
		if !models.ValidNodeType(models.StudyNodeType(req.NodeType)) {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid node type %q", req.NodeType))
			return
		}
		if req.ParentID != nil {
			if _, err := uuid.Parse(*req.ParentID); err != nil {
				writeErr(w, http.StatusBadRequest, fmt.Errorf("parent node does not exist"))
				return
			}
		}
		node := models.StudyNode{
			NodeID:      uuid.NewString(),
			UserID:      userID,
			ParentID:    req.ParentID,
			Name:        req.Name,
			NodeType:    models.StudyNodeType(req.NodeType),
			Description: req.Description,
			Color:       req.Color,
			Icon:        req.Icon,
			SortOrder:   req.SortOrder,
		}
		if err := s.nodeRepo.CheckParent(r.Context(), userID, node.NodeID, node.ParentID); err != nil {
			s.writeNodeErr(w, err)
			return
		}
		if err := s.nodeRepo.Create(r.Context(), node); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"node": node})
	default:
		writeErr(w, http.StatusMethodNotAllowed, nil)
	}
}

func (s *Server) handleStudyNodesScoped(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/studies/nodes/"), "/")
	if rest == "" {
		writeErr(w, http.StatusNotFound, nil)
		return
	}

	switch rest {
	case "with-counts":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, nil)
			return
		}
		nodes, err := s.nodeRepo.ListWithCounts(r.Context(), userID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
		return
	case "pinned":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, nil)
			return
		}
		nodes, err := s.nodeRepo.ListPinned(r.Context(), userID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	nodeID := parts[0]
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}
	if _, err := uuid.Parse(nodeID); err != nil {
		writeErr(w, http.StatusNotFound, nil)
		return
	}

	switch sub {
	case "":
		s.handleStudyNodeByID(w, r, nodeID)
	case "children":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, nil)
			return
		}
		nodes, err := s.nodeRepo.ListChildren(r.Context(), userID, nodeID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
	case "descendants":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, nil)
			return
		}
		depth := 0
		if v := r.URL.Query().Get("depth"); v != "" {
			depth, _ = strconv.Atoi(v)
		}
		nodes, err := s.nodeRepo.ListDescendants(r.Context(), userID, nodeID, depth)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
	default:
		writeErr(w, http.StatusNotFound, nil)
	}
}

func (s *Server) handleStudyNodeByID(w http.ResponseWriter, r *http.Request, nodeID string) {
	userID, _ := auth.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		node, err := s.nodeRepo.GetByID(r.Context(), userID, nodeID)
		if err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"node": node})
	case http.MethodPut:
		node, err := s.nodeRepo.GetByID(r.Context(), userID, nodeID)
		if err != nil {
			writeRepoErr(w, err)
			return
		}
		var req struct {
			Name        *string `json:"name"`
			NodeType    *string `json:"node_type"`
			ParentID    *string `json:"parent_id"`
			MoveToRoot  bool    `json:"move_to_root"`
			Description *string `json:"description"`
			Color       *string `json:"color"`
			Icon        *string `json:"icon"`
			Pinned      *bool   `json:"pinned"`
			SortOrder   *int    `json:"sort_order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				writeErr(w, http.StatusBadRequest, errors.New("name is required"))
				return
			}
			node.Name = name
		}
		if req.NodeType != nil {
			if !models.ValidNodeType(models.StudyNodeType(*req.NodeType)) {
				writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid node type %q", *req.NodeType))
				return
			}
			node.NodeType = models.StudyNodeType(*req.NodeType)
		}
		if req.MoveToRoot {
			node.ParentID = nil
		} else if req.ParentID != nil {
			if _, err := uuid.Parse(*req.ParentID); err != nil {
				writeErr(w, http.StatusBadRequest, fmt.Errorf("parent node does not exist"))
				return
			}
			node.ParentID = req.ParentID
		}
		if req.Description != nil {
			node.Description = *req.Description
		}
		if req.Color != nil {
			node.Color = *req.Color
		}
		if req.Icon != nil {
			node.Icon = *req.Icon
		}
		if req.Pinned != nil {
			node.Pinned = *req.Pinned
		}
		if req.SortOrder != nil {
			node.SortOrder = *req.SortOrder
		}
		if err := s.nodeRepo.CheckParent(r.Context(), userID, node.NodeID, node.ParentID); err != nil {
			s.writeNodeErr(w, err)
			return
		}
		if err := s.nodeRepo.Update(r.Context(), node); err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"node": node})
	case http.MethodDelete:
		if err := s.nodeRepo.Delete(r.Context(), userID, nodeID); err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": nodeID})
	default:
		writeErr(w, http.StatusMethodNotAllowed, nil)
	}
}

func (s *Server) writeNodeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNodeCycle):
		writeErr(w, http.StatusBadRequest, err)
	case errors.Is(err, storage.ErrNotFound):
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parent node does not exist"))
	default:
		writeErr(w, http.StatusInternalServerError, err)
	}
}
