package mdpresent

// DefaultMarkdown is the document a new session opens with.
const DefaultMarkdown = `---
title: Markdown Presentations
author: mdpresent
---

# Markdown Presentations
Write slides in plain markdown

---

# Getting Started

- Separate slides with a line containing only ` + "`---`" + `
- Put metadata in a frontmatter block at the top
- Press **Space** or the arrow keys to navigate

<!-- Welcome everyone and explain the basic syntax. -->

---

# Layouts

---

layout: two-cols

## Left column
Text on the left

::right::

## Right column
Text on the right

---

# Code

` + "```go" + `
func main() {
	fmt.Println("hello")
}
` + "```" + `

---

> Simplicity is prerequisite for reliability.

---

# Thank you

Questions?

Slides are plain markdown, edit and present again.
`
