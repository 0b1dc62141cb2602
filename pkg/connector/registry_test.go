package connector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmund/crier/pkg/source"
)

func testDefinitions() []Definition {
	return []Definition{
		{ID: "hubspot", Transport: TransportDirect, URL: "https://hubspot.internal/rpc", CredentialRef: "HUBSPOT_TOKEN"},
		{ID: "github", Transport: TransportProtocol, Command: "github-mcp"},
	}
}

func TestRegistry_LoadOnce(t *testing.T) {
	var loads int32
	reg := NewRegistry(func(ctx context.Context) ([]Definition, error) {
		atomic.AddInt32(&loads, 1)
		return testDefinitions(), nil
	})

	require.NoError(t, reg.Load(context.Background()))
	require.NoError(t, reg.Load(context.Background()))

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	assert.Equal(t, 2, reg.Count())
}

func TestRegistry_ConcurrentLoadDeduplicated(t *testing.T) {
	var loads int32
	release := make(chan struct{})
	reg := NewRegistry(func(ctx context.Context) ([]Definition, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return testDefinitions(), nil
	})

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = reg.Load(context.Background())
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads),
		"racing callers must share one physical load")
	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}

	// Every caller observes the fully populated registry.
	for _, id := range []string{"hubspot", "github"} {
		_, err := reg.Get(id)
		assert.NoError(t, err)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	reg := NewRegistry(StaticLoader(testDefinitions()))
	require.NoError(t, reg.Load(context.Background()))

	_, err := reg.Get("missing")
	require.Error(t, err)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
	assert.Equal(t, "Connector not found: missing", err.Error())
}

func TestRegistry_LoadFailureRetries(t *testing.T) {
	var loads int32
	reg := NewRegistry(func(ctx context.Context) ([]Definition, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			return nil, errors.New("disk unavailable")
		}
		return testDefinitions(), nil
	})

	require.Error(t, reg.Load(context.Background()))
	require.NoError(t, reg.Load(context.Background()))
	assert.Equal(t, 2, reg.Count())
}

func TestRegistry_TransientFailureNeverWipesLoadedRegistry(t *testing.T) {
	// Callers that shared a failed load race against callers retrying it. Once
	// any Load returns nil, the registry must stay populated for the rest of
	// the process: cleanup of the failed attempt must not unwind the retry.
	for iter := 0; iter < 200; iter++ {
		var loads int32
		reg := NewRegistry(func(ctx context.Context) ([]Definition, error) {
			if atomic.AddInt32(&loads, 1) == 1 {
				return nil, errors.New("transient read failure")
			}
			return testDefinitions(), nil
		})

		const callers = 16
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 4; j++ {
					if err := reg.Load(context.Background()); err == nil {
						if _, getErr := reg.Get("hubspot"); getErr != nil {
							t.Errorf("iteration %d: registry empty after successful load: %v", iter, getErr)
						}
					}
				}
			}()
		}
		wg.Wait()

		require.NoError(t, reg.Load(context.Background()))
		assert.Equal(t, 2, reg.Count())
	}
}

func TestRegistry_RejectsInvalidDefinition(t *testing.T) {
	reg := NewRegistry(StaticLoader([]Definition{
		{ID: "broken", Transport: TransportProtocol}, // no command
	}))

	err := reg.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protocol transport requires a command")
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()

	multi := `connectors:
  - id: hubspot
    transport: direct
    url: https://hubspot.internal/rpc
    credentialRef: HUBSPOT_TOKEN
  - id: github
    transport: protocol
    command: github-mcp
    args: ["--stdio"]
`
	single := `id: linear
transport: direct
url: https://linear.internal/rpc
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-multi.yaml"), []byte(multi), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b-single.yml"), []byte(single), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	defs, err := DirLoader(dir)(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 3)

	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"hubspot", "github", "linear"}, ids)
}

func TestDirLoader_MissingDir(t *testing.T) {
	_, err := DirLoader(filepath.Join(t.TempDir(), "nope"))(context.Background())
	require.Error(t, err)
}

func TestEnvCredentialResolver(t *testing.T) {
	t.Setenv("CRIER_TEST_TOKEN", "s3cret")

	resolver := EnvCredentialResolver{}

	creds := resolver.Resolve(Definition{ID: "a", CredentialRef: "CRIER_TEST_TOKEN"})
	assert.Equal(t, map[string]string{"token": "s3cret"}, creds)

	creds = resolver.Resolve(Definition{ID: "b"})
	assert.Empty(t, creds)

	creds = resolver.Resolve(Definition{ID: "c", CredentialRef: "CRIER_TEST_UNSET"})
	assert.Empty(t, creds)
}

func TestResolver_Resolve(t *testing.T) {
	reg := NewRegistry(StaticLoader(testDefinitions()))
	require.NoError(t, reg.Load(context.Background()))
	t.Setenv("HUBSPOT_TOKEN", "hs-token")

	resolver := NewResolver(reg, nil)

	execCtx, err := resolver.Resolve(sourceRef("hubspot", "get_deals", map[string]any{"limit": 5}))
	require.NoError(t, err)
	assert.Equal(t, "hubspot", execCtx.Connector.ID)
	assert.Equal(t, "get_deals", execCtx.Operation)
	assert.Equal(t, "hs-token", execCtx.Credentials["token"])
	assert.Equal(t, map[string]any{"limit": 5}, execCtx.Args)

	_, err = resolver.Resolve(sourceRef("missing", "x", nil))
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestResolver_EphemeralContexts(t *testing.T) {
	// Two resolves of the same connector must not share credential maps:
	// credentials may rotate between calls.
	reg := NewRegistry(StaticLoader(testDefinitions()))
	require.NoError(t, reg.Load(context.Background()))
	t.Setenv("HUBSPOT_TOKEN", "first")

	resolver := NewResolver(reg, nil)

	a, err := resolver.Resolve(sourceRef("hubspot", "get_deals", nil))
	require.NoError(t, err)

	t.Setenv("HUBSPOT_TOKEN", "second")
	b, err := resolver.Resolve(sourceRef("hubspot", "get_deals", nil))
	require.NoError(t, err)

	assert.Equal(t, "first", a.Credentials["token"])
	assert.Equal(t, "second", b.Credentials["token"])
}

func sourceRef(connectorID, fetch string, args map[string]any) source.ConnectorSource {
	return source.ConnectorSource{
		Connector: connectorID,
		Fetch:     fetch,
		Args:      args,
	}
}
