package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/badno/catimport/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const wooCSV = "Name,Regular price,Categories\n\"Ring, silver\",99,Jewellery > Rings\n"

// MockObjectGetter is a mock implementation of ObjectGetter
type MockObjectGetter struct {
	mock.Mock
}

var _ ObjectGetter = (*MockObjectGetter)(nil)

func (m *MockObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSchemeOf(t *testing.T) {
	tests := map[string]string{
		"export.csv":                SchemeFile,
		"/tmp/export.csv":           SchemeFile,
		"file:///tmp/export.csv":    SchemeFile,
		"s3://bucket/export.csv":    SchemeS3,
		"HTTPS://example.com/a.csv": SchemeHTTPS,
		"http://example.com/a.xlsx": SchemeHTTP,
		`C:\exports\products.csv`:   SchemeFile,
	}
	for uri, want := range tests {
		assert.Equal(t, want, SchemeOf(uri), uri)
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "a.xlsx", baseName("https://example.com/exports/a.xlsx?token=1"))
	assert.Equal(t, "products.csv", baseName("s3://bucket/2024/products.csv"))
	assert.Equal(t, "products.csv", baseName(`C:\exports\products.csv`))
}

func TestDecodeCSV(t *testing.T) {
	rows, err := Decode("export.csv", []byte(wooCSV))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "Regular price", "Categories"},
		{"Ring, silver", "99", "Jewellery > Rings"},
	}, rows)
}

func TestDecodeSpreadsheet(t *testing.T) {
	data := workbook(t,
		[]any{"Handle", "Title", "Variant Price"},
		[]any{"ring-1", "Silver Ring", "99.50"},
	)

	rows, err := Decode("export.XLSX", data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Handle", "Title", "Variant Price"}, rows[0])
	assert.Equal(t, "Silver Ring", rows[1][1])
}

func TestDecodeBrokenSpreadsheet(t *testing.T) {
	_, err := Decode("export.xlsx", []byte("not a zip"))
	assert.Error(t, err)
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "woo.csv")
	require.NoError(t, os.WriteFile(path, []byte(wooCSV), 0644))

	in, err := NewFileLoader().Load(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "woo.csv", in.Name)
	assert.Equal(t, len(wooCSV), in.Size())

	rows, err := in.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = NewFileLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestHTTPLoader(t *testing.T) {
	data := workbook(t, []any{"Name", "Price"}, []any{"Mug", "12"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exports/products.xlsx":
			w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := NewHTTPLoader(HTTPConfig{})
	defer loader.Close()

	in, err := loader.Load(context.Background(), srv.URL+"/exports/products.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "products.xlsx", in.Name)

	rows, err := in.Rows()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Price"}, {"Mug", "12"}}, rows)

	_, err = loader.Load(context.Background(), srv.URL+"/missing.csv")
	assert.Error(t, err)
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://imports/2024/shop.csv")
	require.NoError(t, err)
	assert.Equal(t, "imports", bucket)
	assert.Equal(t, "2024/shop.csv", key)

	for _, bad := range []string{"s3://bucket", "s3:///key", "https://bucket/key"} {
		_, _, err := ParseS3URI(bad)
		assert.Error(t, err, bad)
	}
}

func TestS3Loader(t *testing.T) {
	getter := &MockObjectGetter{}
	getter.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Bucket) == "imports" && aws.ToString(in.Key) == "shop/export.csv"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(wooCSV))}, nil)
	getter.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("NoSuchKey"))

	loader := NewS3LoaderWithClient(getter)

	in, err := loader.Load(context.Background(), "s3://imports/shop/export.csv")
	require.NoError(t, err)
	assert.Equal(t, "export.csv", in.Name)
	assert.Equal(t, wooCSV, string(in.Data))

	_, err = loader.Load(context.Background(), "s3://imports/other.csv")
	assert.Error(t, err)
	getter.AssertNumberOfCalls(t, "GetObject", 2)
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(config.DefaultConfig())
	defer r.CloseAll()

	for uri, want := range map[string]string{
		"export.csv":        "file",
		"https://x/a.csv":   "http",
		"http://x/a.csv":    "http",
		"s3://bucket/a.csv": "s3",
	} {
		l, err := r.Resolve(uri)
		require.NoError(t, err, uri)
		assert.Equal(t, want, l.Name(), uri)
	}

	_, err := r.Resolve("ftp://x/a.csv")
	assert.Error(t, err)

	names := make([]string, 0)
	for _, l := range r.List() {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"file", "http", "s3"}, names)

	assert.Error(t, r.Register(NewFileLoader()), "duplicate names are rejected")
}

func TestRegistryLoadWrapsErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewFileLoader()))

	_, err := r.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load")
}
