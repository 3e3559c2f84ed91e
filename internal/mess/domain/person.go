package domain

// Person は一覧表示用に解決したアカウントの公開情報。
type Person struct {
	ID    string
	Name  string
	Email string
}
