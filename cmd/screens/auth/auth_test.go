package authcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/screens/cmd/screens/auth"
	"github.com/papercomputeco/screens/pkg/credentials"
)

func newAuthCmd(in string, args ...string) (*cobra.Command, *bytes.Buffer) {
	cmd := authcmder.NewAuthCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString(in))
	cmd.PersistentFlags().String("config-dir", "", "Override path to .screens/ config directory")
	cmd.SetArgs(args)
	return cmd, out
}

var _ = Describe("NewAuthCmd", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("creates a command with the expected flags", func() {
		cmd := authcmder.NewAuthCmd()
		Expect(cmd.Use).To(Equal("auth [provider]"))
		Expect(cmd.Flags().Lookup("list")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("remove")).NotTo(BeNil())
	})

	Describe("storing a key", func() {
		It("reads the key from stdin", func() {
			cmd, out := newAuthCmd("sk-piped\n", "openai", "--config-dir", tmpDir)
			Expect(cmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Stored"))

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			key, err := mgr.GetKey("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-piped"))
		})

		It("normalizes the provider name", func() {
			cmd, _ := newAuthCmd("sk-ant\n", "  Anthropic ", "--config-dir", tmpDir)
			Expect(cmd.Execute()).To(Succeed())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			key, err := mgr.GetKey("anthropic")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-ant"))
		})

		It("rejects an empty key", func() {
			cmd, _ := newAuthCmd("   \n", "gemini", "--config-dir", tmpDir)
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("cannot be empty"))
		})

		It("errors when stdin is empty", func() {
			cmd, _ := newAuthCmd("", "gemini", "--config-dir", tmpDir)
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no input"))
		})
	})

	Describe("--list flag", func() {
		It("reports when nothing is stored", func() {
			cmd, out := newAuthCmd("", "--list", "--config-dir", tmpDir)
			Expect(cmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("No stored credentials"))
		})

		It("lists stored providers", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

			cmd, out := newAuthCmd("", "--list", "--config-dir", tmpDir)
			Expect(cmd.Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("openai"))
			Expect(out.String()).To(ContainSubstring("OPENAI_API_KEY"))
		})
	})

	Describe("--remove flag", func() {
		It("removes stored credentials", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

			cmd, _ := newAuthCmd("", "--remove", "openai", "--config-dir", tmpDir)
			Expect(cmd.Execute()).To(Succeed())

			key, err := mgr.GetKey("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
		})
	})

	Describe("provider argument validation", func() {
		It("returns error when no provider given", func() {
			cmd, _ := newAuthCmd("")
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("provider argument required"))
		})

		It("returns error for unsupported provider", func() {
			cmd, _ := newAuthCmd("sk-test\n", "ollama", "--config-dir", tmpDir)
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported provider"))
		})
	})

	Describe("shell completion", func() {
		It("completes provider names", func() {
			cmd := authcmder.NewAuthCmd()
			completions, directive := cmd.ValidArgsFunction(cmd, []string{}, "")
			Expect(completions).To(ConsistOf("openai", "anthropic", "gemini"))
			Expect(directive).To(Equal(cobra.ShellCompDirectiveNoFileComp))
		})

		It("provides no completions after the first arg", func() {
			cmd := authcmder.NewAuthCmd()
			completions, _ := cmd.ValidArgsFunction(cmd, []string{"openai"}, "")
			Expect(completions).To(BeNil())
		})
	})
})
