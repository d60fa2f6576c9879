package storage

// FileAdapter wraps a local filesystem path. It is the default backend:
// passing a plain string to Manager.Start selects it.
type FileAdapter struct {
	Path string
}

func (a *FileAdapter) Dialect() string { return "file" }

func isFilePath(conn any) bool {
	s, ok := conn.(string)
	return ok && s != ""
}

func newFileAdapter(conn any) (Adapter, error) {
	return &FileAdapter{Path: conn.(string)}, nil
}
