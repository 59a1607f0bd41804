package process_test

import (
	"net/url"

	"github.com/frahmantamala/practice-gateway/internal/process"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Filter", func() {
	list := process.DemoSeed(process.DemoTenantID)

	ids := func(ps []process.Process) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}

	It("returns everything for an empty filter", func() {
		Expect(ids(process.Apply(list, process.Filter{}))).To(Equal([]string{"1", "2", "3"}))
	})

	It("matches status and priority by membership", func() {
		f := process.Filter{Status: []string{"active"}, Priority: []string{"high", "low"}}
		Expect(ids(process.Apply(list, f))).To(Equal([]string{"1"}))
	})

	It("matches courts as case-insensitive substrings, any of", func() {
		f := process.Filter{Court: []string{"family", "trt"}}
		Expect(ids(process.Apply(list, f))).To(Equal([]string{"2", "3"}))
	})

	It("matches monitoring exactly", func() {
		off := false
		Expect(ids(process.Apply(list, process.Filter{Monitoring: &off}))).To(Equal([]string{"2"}))
	})

	It("searches across text fields, tags and parties", func() {
		Expect(ids(process.Apply(list, process.Filter{Search: "SANDRA"}))).To(Equal([]string{"3"}))
		Expect(ids(process.Apply(list, process.Filter{Search: "fees"}))).To(Equal([]string{"1"}))
		Expect(ids(process.Apply(list, process.Filter{Search: "carlos"}))).To(Equal([]string{"1", "3"}))
		Expect(process.Apply(list, process.Filter{Search: "nothing like this"})).To(BeEmpty())
	})

	It("parses query strings", func() {
		q, _ := url.ParseQuery("status=active,suspended&status=archived&court=TJSP&monitoring=true&q=abc")
		f := process.FilterFromQuery(q)
		Expect(f.Status).To(Equal([]string{"active", "suspended", "archived"}))
		Expect(f.Court).To(Equal([]string{"TJSP"}))
		Expect(*f.Monitoring).To(BeTrue())
		Expect(f.Search).To(Equal("abc"))
		Expect(f.Priority).To(BeNil())
	})
})
