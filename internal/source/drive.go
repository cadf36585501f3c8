package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveName is the source name recorded for Drive runs.
const DriveName = "drive"

// RemoteFile is the newest file found in a folder.
type RemoteFile struct {
	ID   string
	Name string
}

// DriveClient is the part of the Drive API the source needs.
type DriveClient interface {
	Latest(ctx context.Context, folderID, mimeType string) (*RemoteFile, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Drive fetches the most recently modified spreadsheet in a Drive folder.
type Drive struct {
	client   DriveClient
	folderID string
	mimeType string
	maxSize  int64
}

// NewDrive returns a Drive source. maxSize caps the download in bytes.
func NewDrive(client DriveClient, folderID, mimeType string, maxSize int64) *Drive {
	return &Drive{client: client, folderID: folderID, mimeType: mimeType, maxSize: maxSize}
}

func (d *Drive) Name() string { return DriveName }

// Fetch downloads the newest file and returns it as an in-memory XLSX
// snapshot. Every failure wraps core.ErrSourceUnavailable.
func (d *Drive) Fetch(ctx context.Context) (core.RowSource, error) {
	f, err := d.client.Latest(ctx, d.folderID, d.mimeType)
	if err != nil {
		return nil, core.SourceUnavailable(DriveName, fmt.Errorf("list folder %s: %w", d.folderID, err))
	}
	if f == nil {
		return nil, core.SourceUnavailable(DriveName, fmt.Errorf("no spreadsheet found in folder %s", d.folderID))
	}

	slog.Info("drive file found", "file", f.Name, "file_id", f.ID)

	body, err := d.client.Download(ctx, f.ID)
	if err != nil {
		return nil, core.SourceUnavailable(DriveName, fmt.Errorf("download %s: %w", f.Name, err))
	}
	defer body.Close()

	var r io.Reader = body
	if d.maxSize > 0 {
		r = io.LimitReader(body, d.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, core.SourceUnavailable(DriveName, fmt.Errorf("download %s: %w", f.Name, err))
	}
	if d.maxSize > 0 && int64(len(data)) > d.maxSize {
		return nil, core.SourceUnavailable(DriveName, fmt.Errorf("file too large: %s exceeds %d bytes", f.Name, d.maxSize))
	}

	return NewXLSX(DriveName, f.Name, data), nil
}

// driveService adapts *drive.Service to DriveClient.
type driveService struct {
	svc *drive.Service
}

// NewDriveClient authenticates with a service account key file and returns a
// read-only Drive client.
func NewDriveClient(ctx context.Context, credentialsFile string) (DriveClient, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &driveService{svc: svc}, nil
}

func (d *driveService) Latest(ctx context.Context, folderID, mimeType string) (*RemoteFile, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", escapeQuery(folderID), escapeQuery(mimeType))

	list, err := d.svc.Files.List().
		Q(q).
		PageSize(1).
		Fields("files(id, name)").
		OrderBy("modifiedTime desc").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return &RemoteFile{ID: list.Files[0].Id, Name: list.Files[0].Name}, nil
}

func (d *driveService) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := d.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	if resp.Body == nil {
		return nil, errors.New("empty response body")
	}
	return resp.Body, nil
}

// escapeQuery escapes a value for a single-quoted Drive query literal.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
