package model

import (
	"fmt"
	"regexp"
)

// DriveDocumentType はドライブのドキュメント型
const DriveDocumentType = "powerhouse/document-drive"

// ノード種別
const (
	NodeKindFile   = "file"
	NodeKindFolder = "folder"
)

// Drive はドキュメントをまとめるコンテナ
type Drive struct {
	ID               string     `json:"id"`
	Slug             string     `json:"slug"`
	Name             string     `json:"name"`
	Icon             *string    `json:"icon"`             // nullable
	AvailableOffline bool       `json:"availableOffline"` // local state
	SharingType      *string    `json:"sharingType"`      // nullable
	Nodes            []FileNode `json:"nodes"`
	Revision         int        `json:"revision"` // 適用済みドライブ操作数
}

// FileNode はドライブ内のノード（ファイルまたはフォルダ）
type FileNode struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`         // "file" | "folder"
	DocumentType string  `json:"documentType"` // folderの場合は空
	ParentFolder *string `json:"parentFolder"` // nullable
}

var driveIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Validate はDriveのバリデーションを実行する
func (d *Drive) Validate() error {
	if err := ValidateDriveID(d.ID); err != nil {
		return err
	}
	if d.Name == "" {
		return fmt.Errorf("Name must not be empty")
	}
	return nil
}

// ValidateDriveID はドライブIDのバリデーションを実行する
func ValidateDriveID(id string) error {
	if id == "" {
		return fmt.Errorf("drive id must not be empty")
	}
	if !driveIDPattern.MatchString(id) {
		return fmt.Errorf("drive id must match pattern ^[a-zA-Z0-9_.-]+$, got %q", id)
	}
	return nil
}

// FileIDs はkind=fileのノードIDを出現順に返す
func (d *Drive) FileIDs() []string {
	ids := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.Kind == NodeKindFile {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// HasNode はIDのノードが存在するかを返す
func (d *Drive) HasNode(id string) bool {
	for _, n := range d.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Clone はドライブのディープコピーを返す
func (d *Drive) Clone() *Drive {
	c := *d
	c.Nodes = make([]FileNode, len(d.Nodes))
	copy(c.Nodes, d.Nodes)
	return &c
}
