package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func (h *handlers) images() imageURLs {
	return imageURLs(h.deps.FileURLHost)
}

func (h *handlers) listProducts(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	page, err := h.deps.ProductSvc.List(c.Request.Context(), shopFromContext(c).ID, limit, offset)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, productListResponse{
		Products: h.images().products(page.Products),
		Total:    page.Total,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.GetByHandle(c.Request.Context(), shopFromContext(c).ID, c.Param("handle"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images().product(*p))
}

func (h *handlers) listCollections(c *gin.Context) {
	collections, err := h.deps.CollectionSvc.List(c.Request.Context(), shopFromContext(c).ID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	out := make([]collectionResponse, 0, len(collections))
	for _, col := range collections {
		out = append(out, h.images().collection(col))
	}
	c.JSON(http.StatusOK, gin.H{"collections": out})
}

func (h *handlers) getCollection(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	col, err := h.deps.CollectionSvc.GetByHandle(c.Request.Context(), shopFromContext(c).ID, c.Param("handle"), limit, offset)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images().collection(*col))
}

func (h *handlers) getPage(c *gin.Context) {
	page, err := h.deps.ContentSvc.Page(c.Request.Context(), shopFromContext(c).ID, c.Param("handle"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handlers) listPolicies(c *gin.Context) {
	policies, err := h.deps.ContentSvc.Policies(c.Request.Context(), shopFromContext(c).ID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policies": policies})
}

func (h *handlers) getPolicy(c *gin.Context) {
	policy, err := h.deps.ContentSvc.Policy(c.Request.Context(), shopFromContext(c).ID, c.Param("handle"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (h *handlers) listBlogs(c *gin.Context) {
	blogs, err := h.deps.ContentSvc.Blogs(c.Request.Context(), shopFromContext(c).ID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blogs": blogs})
}

func (h *handlers) getBlog(c *gin.Context) {
	blog, err := h.deps.ContentSvc.Blog(c.Request.Context(), shopFromContext(c).ID, c.Param("blogHandle"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	for i := range blog.Articles {
		blog.Articles[i].Image = h.images().abs(blog.Articles[i].Image)
	}
	c.JSON(http.StatusOK, blog)
}

func (h *handlers) getArticle(c *gin.Context) {
	article, err := h.deps.ContentSvc.Article(c.Request.Context(), shopFromContext(c).ID, c.Param("blogHandle"), c.Param("articleHandle"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	article.Image = h.images().abs(article.Image)
	c.JSON(http.StatusOK, article)
}

func (h *handlers) search(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	result, err := h.deps.SearchSvc.Search(c.Request.Context(), shopFromContext(c).ID, c.Query("q"), limit, offset)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	for i := range result.Products {
		result.Products[i].Image = h.images().abs(result.Products[i].Image)
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) predictiveSearch(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	result, err := h.deps.SearchSvc.Predictive(c.Request.Context(), shopFromContext(c).ID, c.Query("q"), limit)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images().predictive(result))
}
