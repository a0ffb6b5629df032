package openai_test

import (
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/llm/provider"
	"github.com/papercomputeco/screens/pkg/llm/provider/openai"
)

var _ = Describe("OpenAI Provider", func() {
	var p provider.Provider

	BeforeEach(func() {
		p = openai.New()
	})

	Describe("Name", func() {
		It("returns 'openai'", func() {
			Expect(p.Name()).To(Equal("openai"))
		})
	})

	Describe("transport details", func() {
		It("posts to the chat completions path over SSE", func() {
			Expect(p.Path()).To(Equal("/v1/chat/completions"))
			Expect(p.Framing()).To(Equal(llm.FramingSSE))
		})

		It("sets a bearer token", func() {
			h := http.Header{}
			p.SetHeaders(h, "sk-test")
			Expect(h.Get("Authorization")).To(Equal("Bearer sk-test"))
		})

		It("leaves auth out without a key", func() {
			h := http.Header{}
			p.SetHeaders(h, "")
			Expect(h).To(BeEmpty())
		})
	})

	Describe("BuildRequest", func() {
		It("puts the system prompt first and enables usage on streams", func() {
			body, err := p.BuildRequest(&llm.ChatRequest{
				Model:    "gpt-4o",
				System:   "you design screens",
				Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "a login page")},
				Stream:   true,
				JSONMode: true,
			})
			Expect(err).NotTo(HaveOccurred())

			var got map[string]any
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got["model"]).To(Equal("gpt-4o"))
			Expect(got["stream"]).To(BeTrue())
			Expect(got["stream_options"]).To(HaveKeyWithValue("include_usage", true))
			Expect(got["response_format"]).To(HaveKeyWithValue("type", "json_object"))

			messages := got["messages"].([]any)
			Expect(messages).To(HaveLen(2))
			Expect(messages[0]).To(HaveKeyWithValue("role", "system"))
			Expect(messages[0]).To(HaveKeyWithValue("content", "you design screens"))
			Expect(messages[1]).To(HaveKeyWithValue("content", "a login page"))
		})

		It("omits streaming fields for a single shot request", func() {
			body, err := p.BuildRequest(&llm.ChatRequest{Model: "gpt-4o"})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).NotTo(ContainSubstring("stream"))
		})
	})

	Describe("ParseResponse", func() {
		It("parses a basic response", func() {
			payload := []byte(`{
				"id": "chatcmpl-123",
				"object": "chat.completion",
				"created": 1677652288,
				"model": "gpt-4o",
				"choices": [{
					"index": 0,
					"message": {"role": "assistant", "content": "{\"name\":\"A\"}"},
					"finish_reason": "stop"
				}],
				"usage": {"prompt_tokens": 9, "completion_tokens": 12, "total_tokens": 21}
			}`)

			resp, err := p.ParseResponse(payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Model).To(Equal("gpt-4o"))
			Expect(resp.Message.Role).To(Equal("assistant"))
			Expect(resp.Message.GetText()).To(Equal(`{"name":"A"}`))
			Expect(resp.StopReason).To(Equal("stop"))
			Expect(resp.Usage.TotalTokens).To(Equal(21))
		})

		It("returns an empty response without choices", func() {
			resp, err := p.ParseResponse([]byte(`{"model":"gpt-4o","choices":[]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message.GetText()).To(BeEmpty())
		})

		It("rejects invalid JSON", func() {
			_, err := p.ParseResponse([]byte(`{`))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ParseStreamChunk", func() {
		It("extracts the content delta", func() {
			chunk, err := p.ParseStreamChunk([]byte(`{"id":"c1","model":"gpt-4o","choices":[{"index":0,"delta":{"content":"{\"scr"},"finish_reason":null}]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.Text).To(Equal(`{"scr`))
			Expect(chunk.Done).To(BeFalse())
		})

		It("captures the finish reason and usage", func() {
			chunk, err := p.ParseStreamChunk([]byte(`{"choices":[{"index":0,"delta":{},"finish_reason":"length"}],"usage":{"total_tokens":5}}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.StopReason).To(Equal("length"))
			Expect(chunk.Usage.TotalTokens).To(Equal(5))
		})

		It("treats [DONE] as the final chunk", func() {
			chunk, err := p.ParseStreamChunk([]byte("[DONE]"))
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk.Done).To(BeTrue())
		})

		It("skips empty data", func() {
			chunk, err := p.ParseStreamChunk([]byte(" "))
			Expect(err).NotTo(HaveOccurred())
			Expect(chunk).To(BeNil())
		})

		It("surfaces an in-stream error", func() {
			_, err := p.ParseStreamChunk([]byte(`{"error":{"type":"server_error","message":"The server is overloaded"}}`))
			Expect(err).To(MatchError(ContainSubstring("overloaded")))
		})
	})
})
