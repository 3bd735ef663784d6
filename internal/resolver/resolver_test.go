package resolver_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zdziszkee/iban-registry/internal/resolver"
)

func TestResolver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Resolver Suite")
}

const (
	germanIban  = "DE89370400440532013000"
	foreignIban = "GB29NWBK60161331926819"
)

var _ = Describe("Resolver", func() {
	var (
		lookupCount int32
		mu          sync.Mutex
		applied     []string
	)

	appliedIbans := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), applied...)
	}

	countingLookup := func(ctx context.Context, normalized string) (*resolver.BankData, error) {
		atomic.AddInt32(&lookupCount, 1)
		return &resolver.BankData{Found: true, BankSortCode: normalized[4:12]}, nil
	}

	record := func(normalized string, data *resolver.BankData, err error) {
		mu.Lock()
		defer mu.Unlock()
		applied = append(applied, normalized)
	}

	BeforeEach(func() {
		atomic.StoreInt32(&lookupCount, 0)
		mu.Lock()
		applied = nil
		mu.Unlock()
	})

	Describe("Input", func() {
		It("never issues a lookup for invalid or empty input", func() {
			r := resolver.New(countingLookup, record, resolver.WithDebounce(5*time.Millisecond))
			defer r.Stop()

			r.Input("")
			r.Input("not an iban")
			r.Input("DE89370400440532013001") // checksum failure

			Consistently(func() int32 {
				return atomic.LoadInt32(&lookupCount)
			}, 50*time.Millisecond).Should(BeZero())
			Expect(r.State()).To(Equal(resolver.StateIdle))
		})

		It("coalesces a burst of keystrokes into one lookup", func() {
			r := resolver.New(countingLookup, record, resolver.WithDebounce(20*time.Millisecond))
			defer r.Stop()

			// Simulates finishing the IBAN: each event carries the full,
			// valid value, only the last one may fire.
			r.Input(germanIban)
			r.Input(germanIban)
			r.Input(germanIban)

			Eventually(appliedIbans, time.Second).Should(HaveLen(1))
			Expect(atomic.LoadInt32(&lookupCount)).To(Equal(int32(1)))
		})

		It("serves repeated input from the cache without a network call", func() {
			r := resolver.New(countingLookup, record, resolver.WithDebounce(5*time.Millisecond))
			defer r.Stop()

			r.Input(germanIban)
			Eventually(appliedIbans, time.Second).Should(HaveLen(1))
			Expect(atomic.LoadInt32(&lookupCount)).To(Equal(int32(1)))

			r.Input(germanIban)
			Eventually(appliedIbans, time.Second).Should(HaveLen(2))
			Expect(atomic.LoadInt32(&lookupCount)).To(Equal(int32(1)))
			Expect(r.CacheSize()).To(Equal(1))
		})

		It("discards a stale in-flight response", func() {
			started := make(chan struct{})
			release := make(chan struct{})

			blockingLookup := func(ctx context.Context, normalized string) (*resolver.BankData, error) {
				if normalized == germanIban {
					close(started)
					<-release
				}
				return &resolver.BankData{Found: true}, nil
			}

			r := resolver.New(blockingLookup, record, resolver.WithDebounce(5*time.Millisecond))
			defer r.Stop()

			r.Input(germanIban)
			Eventually(started, time.Second).Should(BeClosed())

			// The user kept typing: the in-flight response for the old
			// value must not be applied.
			r.Input(foreignIban)
			close(release)

			Eventually(appliedIbans, time.Second).Should(ContainElement(foreignIban))
			Consistently(appliedIbans, 50*time.Millisecond).ShouldNot(ContainElement(germanIban))
		})
	})

	Describe("Resolve", func() {
		It("validates before looking up", func() {
			r := resolver.New(countingLookup, nil)
			defer r.Stop()

			_, err := r.Resolve(context.Background(), "DE89370400440532013001")
			Expect(err).To(HaveOccurred())
			Expect(atomic.LoadInt32(&lookupCount)).To(BeZero())
		})

		It("collapses concurrent lookups for the same IBAN", func() {
			slowLookup := func(ctx context.Context, normalized string) (*resolver.BankData, error) {
				atomic.AddInt32(&lookupCount, 1)
				time.Sleep(50 * time.Millisecond)
				return &resolver.BankData{Found: true, BankSortCode: "37040044"}, nil
			}

			r := resolver.New(slowLookup, nil)
			defer r.Stop()

			var wg sync.WaitGroup
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					data, err := r.Resolve(context.Background(), germanIban)
					Expect(err).NotTo(HaveOccurred())
					Expect(data.BankSortCode).To(Equal("37040044"))
				}()
			}
			wg.Wait()

			Expect(atomic.LoadInt32(&lookupCount)).To(Equal(int32(1)))
		})

		It("hits the cache on the second call", func() {
			r := resolver.New(countingLookup, nil)
			defer r.Stop()

			_, err := r.Resolve(context.Background(), germanIban)
			Expect(err).NotTo(HaveOccurred())
			_, err = r.Resolve(context.Background(), "de89 3704 0044 0532 0130 00")
			Expect(err).NotTo(HaveOccurred())
			Expect(atomic.LoadInt32(&lookupCount)).To(Equal(int32(1)))
		})
	})
})
