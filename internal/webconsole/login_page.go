package webconsole

import (
	"html/template"
)

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
<h1>Restaurant Console</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/login">
  <input type="hidden" name="from" value="{{.From}}">
  <label>Username <input name="username" value="{{.Username}}" required></label>
  <label>Password <input name="password" type="password" required></label>
  <button type="submit">Sign in</button>
</form>
</body>
</html>
`))

type loginView struct {
	Error    string
	From     string
	Username string
}
