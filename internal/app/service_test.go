package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cultivai/cropvision/croplabel"
	"cultivai/cropvision/store"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Vision.CacheDir = filepath.Join(dir, "cache")
	cfg.Store.Path = filepath.Join(dir, "data", "cultivai.db")
	return cfg
}

func TestNewService_WritesTableFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Resolver.Variant = croplabel.VariantExtended
	cfg.Resolver.TableFile = filepath.Join(t.TempDir(), "config", "crops.csv")

	svc, err := NewService(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer svc.Close()

	_, err = os.Stat(cfg.Resolver.TableFile)
	require.NoError(t, err)
	_, err = os.Stat(cfg.Vision.CacheDir)
	require.NoError(t, err)

	name, err := svc.Resolver().ResolveAndTranslate([]croplabel.Candidate{{Description: "Cocoa Bean"}})
	require.NoError(t, err)
	assert.Equal(t, "Cacao", name)
}

func TestNewService_BrokenTableFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Resolver.TableFile = filepath.Join(t.TempDir(), "crops.csv")
	require.NoError(t, os.WriteFile(cfg.Resolver.TableFile, []byte("label,name\ncorn,Maíz\nCORN,Maíz\n"), 0o644))

	_, err := NewService(cfg, nil)
	assert.ErrorIs(t, err, croplabel.ErrDuplicateLabel)
}

func TestNewService_TableColumns(t *testing.T) {
	cfg := testConfig(t)
	cfg.TableColumns = croplabel.ColumnCandidates{Label: []string{"cultivo"}, Name: []string{"nombre_es"}}
	cfg.Resolver.TableFile = filepath.Join(t.TempDir(), "crops.csv")
	require.NoError(t, os.WriteFile(cfg.Resolver.TableFile, []byte("nombre_es,cultivo\nQuinua,quinoa\n"), 0o644))
	t.Cleanup(func() { croplabel.SetColumnCandidates(croplabel.ColumnCandidates{}) })

	svc, err := NewService(cfg, nil)
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, 1, svc.Resolver().Table().Len())
	assert.Equal(t, "Quinua", svc.Resolver().Translate("QUINOA"))
}

func TestService_StoreSeedsCatalog(t *testing.T) {
	svc, err := NewService(testConfig(t), nil)
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	st, err := svc.Store(ctx)
	require.NoError(t, err)
	again, err := svc.Store(ctx)
	require.NoError(t, err)
	assert.Same(t, st, again)

	crops, err := st.Catalog(ctx, store.CatalogFilter{})
	require.NoError(t, err)
	assert.Len(t, crops, len(svc.Resolver().Table().SupportedLabels()))
}

func TestService_ClassifierNeedsKey(t *testing.T) {
	clearEnv(t)
	svc, err := NewService(testConfig(t), nil)
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Classifier()
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Vision.Cloud.APIKey = "k"
	svc2, err := NewService(cfg, nil)
	require.NoError(t, err)
	defer svc2.Close()
	c, err := svc2.Classifier()
	require.NoError(t, err)
	assert.Equal(t, "cloud-vision:5", c.ModelID())
}

func TestService_AdvisorWithoutGeminiKey(t *testing.T) {
	clearEnv(t)
	cfg := testConfig(t)
	cfg.Vision.Cloud.APIKey = "k"
	svc, err := NewService(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer svc.Close()

	a, err := svc.Advisor(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NoError(t, svc.Close())
}
