package shared

// MessageType definiert den Typ einer Nachricht für die WebSocket-Kommunikation.
type MessageType int

// Server -> client types describe screen changes, client -> server types carry input.
const (
	MessageTypeSnapshot MessageType = 0  // Vollständiger Bildschirminhalt (Rows)
	MessageTypeCell     MessageType = 1  // Einzelne Zelle geändert
	MessageTypeClear    MessageType = 2  // Bildschirm löschen
	MessageTypeScroll   MessageType = 3  // Eine Zeile nach oben scrollen
	MessageTypeCursor   MessageType = 4  // Cursor-Position
	MessageTypeSession  MessageType = 5  // Session-ID Übermittlung
	MessageTypeKey      MessageType = 16 // Taste vom Client
	MessageTypeLine     MessageType = 17 // Komplette Eingabezeile vom Client
)

// Message is one frame on the screen mirror socket.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content,omitempty"`

	// Für CELL und CURSOR
	Row     int  `json:"row,omitempty"`
	Col     int  `json:"col,omitempty"`
	Inverse bool `json:"inverse,omitempty"`

	// Für SNAPSHOT: eine Zeichenkette pro Bildschirmzeile, Reverse-Zellen als Spalten
	Rows    []string `json:"rows,omitempty"`
	Reverse [][]int  `json:"reverse,omitempty"`

	// Für SESSION
	SessionID string `json:"sessionId,omitempty"`
}
