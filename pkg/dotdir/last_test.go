package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/screens/pkg/dotdir"
)

var _ = Describe("dotdir.Manager last generation", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadLastGeneration", func() {
		It("returns nil when nothing was saved", func() {
			last, err := m.LoadLastGeneration(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(BeNil())
		})

		It("loads a hand-written file", func() {
			data := `{"generation_id":"g1","prompt":"todo app","screens":[{"id":"s1","index":0,"name":"Home","description":"d","code":"<div></div>"}]}`
			err := os.WriteFile(filepath.Join(tmpDir, "last.json"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			last, err := m.LoadLastGeneration(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(last.GenerationID).To(Equal("g1"))
			Expect(last.Screens).To(HaveLen(1))
			Expect(last.Screens[0].Name).To(Equal("Home"))
		})

		It("returns error for invalid JSON", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "last.json"), []byte("not json"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			last, err := m.LoadLastGeneration(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(last).To(BeNil())
		})
	})

	Describe("SaveLastGeneration", func() {
		It("round-trips and overwrites", func() {
			first := &dotdir.LastGeneration{GenerationID: "first", Prompt: "a"}
			second := &dotdir.LastGeneration{
				GenerationID: "second",
				Prompt:       "b",
				Screens: []dotdir.SavedScreen{
					{ID: "x", Index: 0, Name: "Login", Code: "<form></form>"},
					{ID: "y", Index: 1, Name: "Feed", Code: "<ul></ul>", Truncated: true},
				},
			}

			Expect(m.SaveLastGeneration(first, tmpDir)).To(Succeed())
			Expect(m.SaveLastGeneration(second, tmpDir)).To(Succeed())

			loaded, err := m.LoadLastGeneration(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(second))
		})

		It("returns error for nil generation", func() {
			Expect(m.SaveLastGeneration(nil, tmpDir)).NotTo(Succeed())
		})
	})

	Describe("ClearLastGeneration", func() {
		It("removes the saved generation", func() {
			Expect(m.SaveLastGeneration(&dotdir.LastGeneration{GenerationID: "gone"}, tmpDir)).To(Succeed())
			Expect(m.ClearLastGeneration(tmpDir)).To(Succeed())

			loaded, err := m.LoadLastGeneration(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("succeeds when nothing was saved", func() {
			Expect(m.ClearLastGeneration(tmpDir)).To(Succeed())
		})
	})

	Describe("Screen", func() {
		It("finds screens by emission index", func() {
			last := &dotdir.LastGeneration{Screens: []dotdir.SavedScreen{{Index: 2, Name: "Two"}}}

			s, ok := last.Screen(2)
			Expect(ok).To(BeTrue())
			Expect(s.Name).To(Equal("Two"))

			_, ok = last.Screen(0)
			Expect(ok).To(BeFalse())
		})
	})
})
