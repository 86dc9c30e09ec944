package bridge

import (
	"net/url"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jvm"
)

const (
	urlClass       = "java.net.URL"
	urlClassLoader = "java.net.URLClassLoader"
)

// FileURL returns the file URL of path, made absolute first.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "resolve "+path)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// AppendClasspath makes the classes under paths loadable. A new URL class
// loader, parented to the active one, replaces it. Descriptors already
// cached stay valid.
func (b *Bridge) AppendClasspath(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		u, err := FileURL(p)
		if err != nil {
			return err
		}
		urls = append(urls, u)
	}

	err := b.with(func(env *jvm.Env) error {
		loader, err := newURLLoader(env, urls)
		if err != nil {
			return err
		}
		defer loader.Release()
		b.vm.ReplaceClassLoader(loader)
		return nil
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.jars = append(b.jars, paths...)
	b.mu.Unlock()
	Logger().Debug("classpath appended", zap.Strings("urls", urls))
	return nil
}

func newURLLoader(env *jvm.Env, urls []string) (*jvm.GlobalRef, error) {
	urlCls, err := env.LoadClass(urlClass)
	if err != nil {
		return nil, err
	}
	defer urlCls.Release()

	arr, err := env.NewObjectArray(len(urls), urlCls)
	if err != nil {
		return nil, err
	}
	defer arr.Delete()
	for i, u := range urls {
		s, err := env.NewString(u)
		if err != nil {
			return nil, err
		}
		o, err := env.NewObjectBySig(urlCls, "(Ljava/lang/String;)V", jvm.RefValue(s))
		s.Delete()
		if err != nil {
			return nil, err
		}
		err = env.SetArrayElement(arr, i, o)
		o.Delete()
		if err != nil {
			return nil, err
		}
	}

	loaderCls, err := env.LoadClass(urlClassLoader)
	if err != nil {
		return nil, err
	}
	defer loaderCls.Release()

	parent := env.VM().ClassLoader()
	defer parent.Release()
	l, err := env.NewObjectBySig(loaderCls, "([Ljava/net/URL;Ljava/lang/ClassLoader;)V",
		jvm.RefValue(arr), jvm.RefValue(parent))
	if err != nil {
		return nil, err
	}
	return l.Promote()
}

// LoadedJars returns the paths appended so far.
func (b *Bridge) LoadedJars() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.jars)
}

// ClassLoader returns a new owner of the active class loader.
func (b *Bridge) ClassLoader() *jvm.GlobalRef {
	return b.vm.ClassLoader()
}

// SetClassLoader makes loader the active class loader. The caller keeps its
// reference.
func (b *Bridge) SetClassLoader(loader *jvm.GlobalRef) {
	b.vm.ReplaceClassLoader(loader)
}
