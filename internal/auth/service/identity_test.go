package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestStoreIdentityWithoutConstructor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Built as a literal, so the validator is created on first use.
	identity := &service.StoreIdentity{Store: f.Store}

	const workers = 8
	errs := make(chan error, workers*2)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			u, err := identity.VerifyCredentials(context.Background(), testUsername, testPassword)
			if err == nil && u.ID != f.UserID {
				err = errors.New("resolved the wrong user")
			}
			errs <- err

			_, err = identity.VerifyCredentials(context.Background(), "", testPassword)
			var ce *service.CredentialError
			if !errors.As(err, &ce) || ce.Code != service.CredEmptyUsername {
				errs <- errors.New("empty username not rejected")
				return
			}
			errs <- nil
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
