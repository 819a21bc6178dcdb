package mcpserver

// RelocationRules describes when and where new notes are moved. It is served
// as a resource so LLM consumers can predict where a note will end up.
const RelocationRules = `# Canvas Note Relocation Rules

A Markdown note created while a canvas is open is moved into a folder next to
that canvas.

## When a note is moved

1. The new file ends with ` + "`" + `.md` + "`" + ` and is not a folder.
2. At least one canvas pane is open.
3. The note was created in the vault root. Notes created anywhere else stay put.

## Where it goes

- The active canvas is the first open pane whose file is a ` + "`" + `.canvas` + "`" + ` document.
- The target folder is ` + "`" + `elements-of_<canvas name>` + "`" + `, created next to the canvas.
  A canvas at ` + "`" + `maps/Board.canvas` + "`" + ` sends notes to ` + "`" + `maps/elements-of_Board/` + "`" + `.
- The note keeps its name. If it is taken, ` + "`" + ` 1` + "`" + `, ` + "`" + ` 2` + "`" + ` ... ` + "`" + ` 999` + "`" + ` is appended to the
  stem, and after that a millisecond timestamp.

## What is not done

- Existing files are never overwritten.
- A failed move is not retried and nothing is rolled back.
- Links to the note in other notes and canvases are rewritten to the new path.
`
