package resolve

import "strings"

// Classification describes how referenced content should be embedded,
// judged by the reference's extension alone. Opaque content goes into a
// fenced code block tagged with Tag; markdown-like content is re-parsed.
type Classification struct {
	MarkdownLike bool
	Tag          string
}

// Classify inspects the extension of a path or URL. The tag is the
// substring after the last dot that follows the last path separator,
// lowercased; md and mdx are markdown-like, everything else (including
// no extension at all) is opaque. No I/O, no content sniffing.
func Classify(sourceID string) Classification {
	base := sourceID
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return Classification{}
	}
	tag := strings.ToLower(base[dot+1:])
	return Classification{
		MarkdownLike: tag == "md" || tag == "mdx",
		Tag:          tag,
	}
}
