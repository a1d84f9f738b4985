package route

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Encryptor applies AES-256 owner-password encryption to placed PDFs,
// leaving read and print access open. Students receive a document they can
// view and print but not edit or reassemble.
type Encryptor struct {
	Password string
}

// EncryptInPlace replaces the file at path with its encrypted form. The
// original is only replaced after encryption succeeds.
func (e *Encryptor) EncryptInPlace(path string) error {
	if e.Password == "" {
		return fmt.Errorf("encryption requested but no password configured")
	}

	conf := model.NewAESConfiguration("", e.Password, 256)
	conf.Permissions = model.PermissionsPrint

	tmp := path + ".enc"
	if err := api.EncryptFile(path, tmp, conf); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
