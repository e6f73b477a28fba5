package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// driveService はDriveServiceの実装
type driveService struct {
	store store.Store
	mu    sync.Mutex // read-modify-writeの直列化
}

// NewDriveService はDriveServiceの新しいインスタンスを作成
func NewDriveService(s store.Store) DriveService {
	return &driveService{store: s}
}

// GetDriveIDs はドライブID一覧を返す
func (s *driveService) GetDriveIDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListDriveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list drives: %w", err)
	}
	return ids, nil
}

// AddDrive はドライブを作成する
func (s *driveService) AddDrive(ctx context.Context, req *AddDriveRequest) (*model.Drive, error) {
	if req.Name == "" {
		return nil, ErrNameRequired
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	if err := model.ValidateDriveID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDriveID, err)
	}
	slug := req.Slug
	if slug == "" {
		slug = id
	}

	drive := &model.Drive{
		ID:               id,
		Slug:             slug,
		Name:             req.Name,
		Icon:             req.Icon,
		AvailableOffline: req.AvailableOffline,
		SharingType:      req.SharingType,
		Nodes:            []model.FileNode{},
	}

	if err := s.store.AddDrive(ctx, drive); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %s", ErrDriveExists, id)
		}
		return nil, fmt.Errorf("failed to add drive: %w", err)
	}
	return drive, nil
}

// GetDrive はIDでドライブを取得する
func (s *driveService) GetDrive(ctx context.Context, id string) (*model.Drive, error) {
	if id == "" {
		return nil, ErrDriveIDRequired
	}
	drive, err := s.store.GetDrive(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDriveNotFound
		}
		return nil, fmt.Errorf("failed to get drive: %w", err)
	}
	return drive, nil
}

// AddDriveActions はドライブ操作を順に適用する
// 拒否されたアクションで処理を止め、それまでの変更は保存する
func (s *driveService) AddDriveActions(ctx context.Context, driveID string, actions []model.Action) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drive, err := s.GetDrive(ctx, driveID)
	if err != nil {
		return nil, err
	}

	result := &ActionResult{Status: StatusSuccess, Operations: []model.Operation{}}
	for _, action := range actions {
		action = normalizeAction(action)
		if err := applyDriveAction(drive, action); err != nil {
			msg := err.Error()
			result.Status = StatusError
			result.Error = &msg
			break
		}
		result.Operations = append(result.Operations, model.Operation{
			Index:          drive.Revision,
			TimestampUtcMs: action.TimestampUtcMs,
			Action:         action,
		})
		drive.Revision++
	}

	if len(result.Operations) > 0 {
		if err := s.store.UpdateDrive(ctx, drive); err != nil {
			return nil, fmt.Errorf("failed to update drive: %w", err)
		}
	}
	result.Revision = drive.Revision
	return result, nil
}

// applyDriveAction はドライブ操作1件をドライブに適用する
func applyDriveAction(drive *model.Drive, action model.Action) error {
	switch action.Type {
	case DriveActionAddFile:
		var in AddFileInput
		if err := decodeDriveInput(action, &in); err != nil {
			return err
		}
		if drive.HasNode(in.ID) {
			return fmt.Errorf("node with id %s already exists", in.ID)
		}
		if err := checkParentFolder(drive, in.ParentFolder); err != nil {
			return err
		}
		drive.Nodes = append(drive.Nodes, model.FileNode{
			ID:           in.ID,
			Name:         in.Name,
			Kind:         model.NodeKindFile,
			DocumentType: in.DocumentType,
			ParentFolder: in.ParentFolder,
		})
	case DriveActionAddFolder:
		var in AddFolderInput
		if err := decodeDriveInput(action, &in); err != nil {
			return err
		}
		if drive.HasNode(in.ID) {
			return fmt.Errorf("node with id %s already exists", in.ID)
		}
		if err := checkParentFolder(drive, in.ParentFolder); err != nil {
			return err
		}
		drive.Nodes = append(drive.Nodes, model.FileNode{
			ID:           in.ID,
			Name:         in.Name,
			Kind:         model.NodeKindFolder,
			ParentFolder: in.ParentFolder,
		})
	case DriveActionDeleteNode:
		var in DeleteNodeInput
		if err := decodeDriveInput(action, &in); err != nil {
			return err
		}
		if !drive.HasNode(in.ID) {
			return fmt.Errorf("node with id %s not found", in.ID)
		}
		drive.Nodes = removeNodeTree(drive.Nodes, in.ID)
	case DriveActionSetDriveName:
		var in SetDriveNameInput
		if err := decodeDriveInput(action, &in); err != nil {
			return err
		}
		drive.Name = in.Name
	default:
		return fmt.Errorf("unknown drive action type: %s", action.Type)
	}
	return nil
}

func decodeDriveInput(action model.Action, dst any) error {
	if err := json.Unmarshal(action.Input, dst); err != nil {
		return fmt.Errorf("invalid %s input: %v", action.Type, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid %s input: %v", action.Type, err)
	}
	return nil
}

func checkParentFolder(drive *model.Drive, parent *string) error {
	if parent == nil || *parent == "" {
		return nil
	}
	for _, n := range drive.Nodes {
		if n.ID == *parent {
			if n.Kind != model.NodeKindFolder {
				return fmt.Errorf("parent %s is not a folder", *parent)
			}
			return nil
		}
	}
	return fmt.Errorf("parent folder %s not found", *parent)
}

// removeNodeTree はノードとその子孫を取り除く
func removeNodeTree(nodes []model.FileNode, id string) []model.FileNode {
	removed := map[string]bool{id: true}
	// 子孫を収集（親が先に現れるとは限らないので収束するまで繰り返す）
	for changed := true; changed; {
		changed = false
		for _, n := range nodes {
			if !removed[n.ID] && n.ParentFolder != nil && removed[*n.ParentFolder] {
				removed[n.ID] = true
				changed = true
			}
		}
	}

	kept := make([]model.FileNode, 0, len(nodes))
	for _, n := range nodes {
		if !removed[n.ID] {
			kept = append(kept, n)
		}
	}
	return kept
}

// normalizeAction はid・scope・timestampの欠落を補う
func normalizeAction(action model.Action) model.Action {
	if strings.TrimSpace(action.ID) == "" {
		action.ID = uuid.New().String()
	}
	if action.Scope == "" {
		action.Scope = model.ScopeGlobal
	}
	if action.TimestampUtcMs == 0 {
		action.TimestampUtcMs = model.NowMillis()
	}
	if len(action.Input) == 0 {
		action.Input = json.RawMessage(`{}`)
	}
	return action
}
