package testutils

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/screens/pkg/storage"
)

// DescribeDriver registers the behavior every storage.Driver must show.
// newDriver is called before each spec and the driver is closed after it.
func DescribeDriver(newDriver func() storage.Driver) bool {
	return Describe("storage.Driver behavior", func() {
		var (
			driver storage.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			driver = newDriver()
		})

		AfterEach(func() {
			if driver != nil {
				Expect(driver.Close()).To(Succeed())
				driver = nil
			}
		})

		It("stores and retrieves a screen", func() {
			s := NewTestScreen("gen-a", 0, "Home")
			s.Truncated = true
			s.Code = `<div class="x">it's "quoted"</div>`
			Expect(driver.Put(ctx, s)).To(Succeed())

			got, err := driver.Get(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(s.ID))
			Expect(got.GenerationID).To(Equal("gen-a"))
			Expect(got.Name).To(Equal("Home"))
			Expect(got.Description).To(Equal(s.Description))
			Expect(got.Code).To(Equal(s.Code))
			Expect(got.Truncated).To(BeTrue())
			Expect(got.CreatedAt.Equal(s.CreatedAt)).To(BeTrue())
		})

		It("returns NotFoundError for unknown ids", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(err).To(HaveOccurred())
			Expect(storage.IsNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("missing"))
		})

		It("rejects nil screens", func() {
			Expect(errors.Is(driver.Put(ctx, nil), storage.ErrNilScreen)).To(BeTrue())
		})

		It("replaces a screen stored twice", func() {
			s := NewTestScreen("gen-a", 0, "Home")
			Expect(driver.Put(ctx, s)).To(Succeed())

			updated := *s
			updated.Code = "<div>v2</div>"
			Expect(driver.Put(ctx, &updated)).To(Succeed())

			got, err := driver.Get(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Code).To(Equal("<div>v2</div>"))

			list, err := driver.ListGeneration(ctx, "gen-a")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		It("lists a generation ordered by index then creation", func() {
			third := NewTestScreen("gen-b", 2, "Settings")
			first := NewTestScreen("gen-b", 0, "Login")
			second := NewTestScreen("gen-b", 1, "Feed")
			refined := NewTestScreen("gen-b", 0, "Login v2")
			refined.CreatedAt = first.CreatedAt.Add(time.Minute)
			other := NewTestScreen("gen-c", 0, "Other")

			Expect(driver.Put(ctx, third)).To(Succeed())
			Expect(driver.Put(ctx, refined)).To(Succeed())
			Expect(driver.Put(ctx, first)).To(Succeed())
			Expect(driver.Put(ctx, second)).To(Succeed())
			Expect(driver.Put(ctx, other)).To(Succeed())

			list, err := driver.ListGeneration(ctx, "gen-b")
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(list))
			for _, s := range list {
				names = append(names, s.Name)
			}
			Expect(names).To(Equal([]string{"Login", "Login v2", "Feed", "Settings"}))
		})

		It("returns an empty list for unknown generations", func() {
			list, err := driver.ListGeneration(ctx, "nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})
	})
}
